package http

import (
	"log/slog"
	"net/http"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httputil"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/pagination"
)

// CatalogHandler exposes the catalog snapshot and the manual reload.
type CatalogHandler struct {
	storefront *storefront.Storefront
	logger     *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(sf *storefront.Storefront, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{storefront: sf, logger: logger}
}

// ProductListResponse is one page of the catalog plus its fetch state.
type ProductListResponse struct {
	State catalog.State `json:"state"`
	Error string        `json:"error,omitempty"`
	pagination.Result[domain.Product]
}

// ListProducts handles GET /api/v1/products?page=&per_page=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	snap := h.storefront.Products()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ProductListResponse{
		State:  snap.State,
		Error:  snap.Error,
		Result: pagination.Slice(snap.Products, pagination.FromRequest(r)),
	}})
}

// Reload handles POST /api/v1/catalog/reload. A failed fetch leaves the
// catalog empty and in the failed state.
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.storefront.ReloadCatalog(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: snap})
}

// ServeCatalogFile returns a handler for GET /products.json backed by path.
func ServeCatalogFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, path)
	}
}
