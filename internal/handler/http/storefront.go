package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httputil"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/validator"
)

// maxEventBytes bounds a delegated event body.
const maxEventBytes = 4 << 10

// StorefrontHandler serves the page and the delegated UI events.
type StorefrontHandler struct {
	storefront *storefront.Storefront
	logger     *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(sf *storefront.Storefront, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{storefront: sf, logger: logger}
}

// Page handles GET /
func (h *StorefrontHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.storefront.Page()
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	httputil.WriteHTML(w, http.StatusOK, page)
}

// Event handles POST /events. The body is either JSON
// {"action","product_id","key"} or a form with the same fields. The response
// is the resulting view with re-rendered fragments.
func (h *StorefrontHandler) Event(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)

	ev, err := decodeEvent(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(ev); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view := h.storefront.Dispatch(r.Context(), ev)
	view, err = h.storefront.ViewWithFragments(view)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

func decodeEvent(r *http.Request) (storefront.Event, error) {
	var ev storefront.Event

	if isJSON(r.Header.Get("Content-Type")) {
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			return ev, apperrors.InvalidInput("invalid request body: " + err.Error())
		}
		return ev, nil
	}

	if err := r.ParseForm(); err != nil {
		return ev, apperrors.InvalidInput("invalid form: " + err.Error())
	}
	ev.Action = storefront.Action(strings.TrimSpace(r.PostForm.Get("action")))
	ev.Key = r.PostForm.Get("key")
	if raw := strings.TrimSpace(r.PostForm.Get("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ev, apperrors.InvalidInput("invalid product_id: " + raw)
		}
		ev.ProductID = id
	}
	return ev, nil
}
