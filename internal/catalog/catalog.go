package catalog

import (
	"sync"
	"time"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
)

// State is the lifecycle of the catalog fetch.
type State string

const (
	StatePending State = "pending"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Snapshot is an immutable view of the catalog.
type Snapshot struct {
	State    State            `json:"state"`
	Products []domain.Product `json:"products"`
	Error    string           `json:"error,omitempty"`
	LoadedAt time.Time        `json:"loaded_at,omitempty"`
}

// Catalog holds the products of the current session. It starts pending and
// empty; only the Loader moves it to loaded or failed.
type Catalog struct {
	mu       sync.RWMutex
	state    State
	products []domain.Product
	byID     map[int64]int
	err      error
	loadedAt time.Time
}

// New returns an empty, pending catalog.
func New() *Catalog {
	return &Catalog{state: StatePending, byID: map[int64]int{}}
}

// Lookup finds a product by id. Unknown ids, including every id while the
// catalog is pending or failed, report false.
func (c *Catalog) Lookup(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// State returns the current fetch state.
func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Products returns a copy of the product list in catalog order.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product{}, c.products...)
}

// Snapshot returns a copy of the whole catalog state.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		State:    c.state,
		Products: append([]domain.Product{}, c.products...),
		LoadedAt: c.loadedAt,
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	return s
}

func (c *Catalog) setPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StatePending
	c.err = nil
}

// setLoaded publishes products. Later duplicates of an id are ignored.
func (c *Catalog) setLoaded(products []domain.Product, at time.Time) {
	list := make([]domain.Product, 0, len(products))
	byID := make(map[int64]int, len(products))
	for _, p := range products {
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = len(list)
		list = append(list, p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateLoaded
	c.products = list
	c.byID = byID
	c.err = nil
	c.loadedAt = at
}

// setFailed empties the catalog and records the cause.
func (c *Catalog) setFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateFailed
	c.products = nil
	c.byID = map[int64]int{}
	c.err = err
}
