package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation",
	},
	[]string{"op"},
)

// Op names a cart mutation.
type Op string

const (
	OpAdd            Op = "add"
	OpRemove         Op = "remove"
	OpChangeQuantity Op = "change_quantity"
	OpClear          Op = "clear"
)

// Change describes a cart mutation after it has been applied and persisted.
type Change struct {
	Op        Op
	ProductID int64
	Delta     int
	Items     []domain.LineItem
	// NoOp is set when the cart was saved and re-rendered but its contents
	// did not change, e.g. removing an id that is not in the cart.
	NoOp bool
}

// Listener is notified of every cart change.
type Listener func(ctx context.Context, change Change)

// ProductLookup resolves product ids against the current catalog.
type ProductLookup interface {
	Lookup(id int64) (domain.Product, bool)
}

// Saver persists the full line-item sequence.
type Saver interface {
	Save(ctx context.Context, items []domain.LineItem) error
}

// Store owns the cart and is its only mutator. Each mutation saves the new
// state before returning, then notifies listeners. Unknown ids are no-ops,
// never errors.
type Store struct {
	mu        sync.Mutex
	cart      domain.Cart
	products  ProductLookup
	saver     Saver
	listeners []Listener
	logger    *slog.Logger
}

// NewStore creates an empty store.
func NewStore(products ProductLookup, saver Saver, logger *slog.Logger) *Store {
	return &Store{
		cart:     domain.Cart{Items: []domain.LineItem{}},
		products: products,
		saver:    saver,
		logger:   logger,
	}
}

// Subscribe registers a listener. Listeners run in registration order after
// the mutation is persisted, outside the store lock.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Hydrate replaces the cart with items read from storage without saving them
// back or notifying listeners.
func (s *Store) Hydrate(items []domain.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Items = domain.NormalizeItems(items)
}

// Items returns a copy of the line items in display order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneItems(s.cart.Items)
}

// Cart returns a copy of the cart.
func (s *Store) Cart() domain.Cart {
	return domain.Cart{Items: s.Items()}
}

// AddItem adds one unit of productID. A product already in the cart has its
// quantity incremented; otherwise a line item is appended with name, price and
// image copied from the catalog now. It returns the product and false when
// productID is not in the catalog, in which case nothing happens.
func (s *Store) AddItem(ctx context.Context, productID int64) (domain.Product, bool) {
	product, ok := s.products.Lookup(productID)
	if !ok {
		return domain.Product{}, false
	}

	s.mu.Lock()
	if i := s.cart.FindItemIndex(productID); i >= 0 {
		s.cart.Items[i].Quantity = domain.AddQuantity(s.cart.Items[i].Quantity, 1)
	} else {
		s.cart.Items = append(s.cart.Items, domain.NewLineItem(product))
	}
	change := s.commitLocked(ctx, Change{Op: OpAdd, ProductID: productID, Delta: 1})
	s.mu.Unlock()

	s.notify(ctx, change)
	return product, true
}

// RemoveItem deletes the line item for productID if present. The change is
// persisted and announced either way; it is flagged NoOp when productID was
// not in the cart.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	removed := s.removeLocked(productID)
	change := s.commitLocked(ctx, Change{Op: OpRemove, ProductID: productID, NoOp: !removed})
	s.mu.Unlock()

	s.notify(ctx, change)
}

// ChangeQuantity adds delta to the quantity of productID. A result <= 0
// removes the line item; a positive delta saturates at math.MaxInt. It reports false, changing nothing, when productID
// is not in the cart.
func (s *Store) ChangeQuantity(ctx context.Context, productID int64, delta int) bool {
	s.mu.Lock()
	i := s.cart.FindItemIndex(productID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	op := OpChangeQuantity
	if q := domain.AddQuantity(s.cart.Items[i].Quantity, delta); q <= 0 {
		s.removeLocked(productID)
		op = OpRemove
	} else {
		s.cart.Items[i].Quantity = q
	}
	change := s.commitLocked(ctx, Change{Op: op, ProductID: productID, Delta: delta})
	s.mu.Unlock()

	s.notify(ctx, change)
	return true
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.cart.Items = []domain.LineItem{}
	change := s.commitLocked(ctx, Change{Op: OpClear})
	s.mu.Unlock()

	s.notify(ctx, change)
}

func (s *Store) removeLocked(productID int64) bool {
	kept := s.cart.Items[:0]
	for _, it := range s.cart.Items {
		if it.ID != productID {
			kept = append(kept, it)
		}
	}
	removed := len(kept) != len(s.cart.Items)
	s.cart.Items = kept
	return removed
}

// commitLocked saves the cart and returns the change to announce. A failed
// save is logged; the in-memory cart stays authoritative for the session.
func (s *Store) commitLocked(ctx context.Context, change Change) Change {
	mutationsTotal.WithLabelValues(string(change.Op)).Inc()
	change.Items = domain.CloneItems(s.cart.Items)

	if s.saver != nil {
		if err := s.saver.Save(ctx, change.Items); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist cart",
				slog.String("op", string(change.Op)),
				slog.Int64("product_id", change.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	return change
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(ctx, change)
	}
}
