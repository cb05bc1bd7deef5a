package domain

import "math"

// LineItem is one distinct product in the cart. Name, price and image are
// copied from the catalog when the product is first added and never re-synced.
type LineItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    Cents  `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Subtotal is price times quantity.
func (li LineItem) Subtotal() Cents {
	return li.Price.Mul(li.Quantity)
}

// NewLineItem snapshots a product as a line item with quantity 1.
func NewLineItem(p Product) LineItem {
	return LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}

// Cart is the ordered sequence of line items; insertion order is display order.
// It holds at most one line item per product id, each with quantity >= 1.
type Cart struct {
	Items []LineItem `json:"items"`
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	return TotalItemCount(c.Items)
}

// TotalAmount returns the cart total in cents.
func (c *Cart) TotalAmount() Cents {
	return TotalPrice(c.Items)
}

// FindItemIndex returns the index of the line item for productID, or -1.
func (c *Cart) FindItemIndex(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CloneItems returns a copy of items that never aliases the input. A nil or
// empty input yields an empty, non-nil slice.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// AddQuantity returns q+delta, saturating at the int range so a huge
// positive delta never wraps into a removal.
func AddQuantity(q, delta int) int {
	switch {
	case delta > 0 && q > math.MaxInt-delta:
		return math.MaxInt
	case delta < 0 && q < math.MinInt-delta:
		return math.MinInt
	}
	return q + delta
}

// TotalItemCount sums quantities. An empty cart counts 0.
func TotalItemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n = AddQuantity(n, it.Quantity)
	}
	return n
}

// TotalPrice sums price x quantity in exact cents, saturating at the Cents
// range.
func TotalPrice(items []LineItem) Cents {
	var total Cents
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// NormalizeItems restores the cart invariants on data from outside the store:
// entries without a valid id, with a negative price or with quantity <= 0 are
// dropped, and repeated ids are merged into the first occurrence by summing
// quantities.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, it := range items {
		if it.ID < 1 || it.Quantity <= 0 || it.Price < 0 {
			continue
		}
		if i, ok := index[it.ID]; ok {
			out[i].Quantity = AddQuantity(out[i].Quantity, it.Quantity)
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
