package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httputil"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/validator"
)

// CartHandler handles the JSON cart endpoints.
type CartHandler struct {
	storefront *storefront.Storefront
	logger     *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sf *storefront.Storefront, logger *slog.Logger) *CartHandler {
	return &CartHandler{storefront: sf, logger: logger}
}

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the JSON request body for changing a quantity by
// a signed delta.
type UpdateQuantityRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

// MutationResponse reports the cart after a mutation and whether it applied.
// Unknown products are not errors; they leave the cart as it was.
type MutationResponse struct {
	Cart    storefront.View `json:"cart"`
	Applied bool            `json:"applied"`
	Message string          `json:"message,omitempty"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.storefront.View()})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, applied := h.storefront.AddItem(r.Context(), req.ProductID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MutationResponse{Cart: view, Applied: applied}})
}

// UpdateItemQuantity handles PATCH /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, applied := h.storefront.ChangeQuantity(r.Context(), productID, *req.Delta)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MutationResponse{Cart: view, Applied: applied}})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	view := h.storefront.RemoveItem(r.Context(), productID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view := h.storefront.Clear(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Checkout handles POST /api/v1/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	view, ordered := h.storefront.Checkout(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MutationResponse{
		Cart:    view,
		Applied: ordered,
		Message: view.Shell.ToastMessage,
	}})
}
