package domain

// Product is one catalog entry. Products are read-only for the storefront.
type Product struct {
	ID          int64  `json:"id" validate:"required,gte=1"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       Cents  `json:"price" validate:"gte=0"`
	Image       string `json:"image" validate:"required"`
}
