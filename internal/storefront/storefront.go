package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/cart"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/render"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/ui"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
)

// Toast messages.
const (
	MsgCartEmpty       = "Seu carrinho está vazio!"
	MsgCheckoutSuccess = "Pedido realizado com sucesso! Obrigado pela compra."
	msgAddedFormat     = "%s adicionado ao carrinho!"
)

// Action names a delegated UI event.
type Action string

const (
	ActionAddToCart    Action = "add-to-cart"
	ActionIncrease     Action = "increase"
	ActionDecrease     Action = "decrease"
	ActionRemove       Action = "remove"
	ActionCheckout     Action = "checkout"
	ActionOpenCart     Action = "open-cart"
	ActionCloseCart    Action = "close-cart"
	ActionOverlayClick Action = "overlay-click"
	ActionKeyDown      Action = "keydown"
	ActionToggleNav    Action = "toggle-nav"
	ActionNavLink      Action = "nav-link"
)

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_ui_events_total",
		Help: "Delegated UI events by action",
	},
	[]string{"action"},
)

// Event is one delegated UI event: the action of the element that was hit,
// the product id it carries, and the key for keyboard events.
type Event struct {
	Action    Action `json:"action" validate:"required"`
	ProductID int64  `json:"product_id"`
	Key       string `json:"key"`
}

// View is an immutable snapshot of everything the page shows.
type View struct {
	Items          []domain.LineItem `json:"items"`
	ItemCount      int               `json:"item_count"`
	Total          domain.Cents      `json:"total"`
	TotalFormatted string            `json:"total_formatted"`
	Shell          ui.ShellState     `json:"shell"`
	CatalogState   catalog.State     `json:"catalog_state"`
	Fragments      *render.Fragments `json:"fragments,omitempty"`
}

// CheckoutPublisher announces completed checkouts.
type CheckoutPublisher interface {
	PublishCheckedOut(ctx context.Context, items []domain.LineItem) error
}

// Deps are the collaborators of a Storefront.
type Deps struct {
	Store    *cart.Store
	Catalog  *catalog.Catalog
	Loader   *catalog.Loader
	Shell    *ui.Shell
	Renderer *render.Renderer
	Checkout CheckoutPublisher
	Logger   *slog.Logger
}

// Storefront is one page instance: it owns the cart store, the catalog and
// the shell, and runs every event to completion before the next one starts.
type Storefront struct {
	mu       sync.Mutex
	store    *cart.Store
	catalog  *catalog.Catalog
	loader   *catalog.Loader
	shell    *ui.Shell
	renderer *render.Renderer
	checkout CheckoutPublisher
	logger   *slog.Logger
}

// New creates a storefront from deps.
func New(deps Deps) *Storefront {
	return &Storefront{
		store:    deps.Store,
		catalog:  deps.Catalog,
		loader:   deps.Loader,
		shell:    deps.Shell,
		renderer: deps.Renderer,
		checkout: deps.Checkout,
		logger:   deps.Logger,
	}
}

// Dispatch applies ev and returns the resulting view. Unknown actions and
// unknown product ids leave everything unchanged.
func (s *Storefront) Dispatch(ctx context.Context, ev Event) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Action {
	case ActionAddToCart:
		s.addLocked(ctx, ev.ProductID)
	case ActionIncrease:
		s.store.ChangeQuantity(ctx, ev.ProductID, 1)
	case ActionDecrease:
		s.store.ChangeQuantity(ctx, ev.ProductID, -1)
	case ActionRemove:
		s.store.RemoveItem(ctx, ev.ProductID)
	case ActionCheckout:
		s.checkoutLocked(ctx)
	case ActionOpenCart:
		s.shell.OpenCart()
	case ActionCloseCart:
		s.shell.CloseCart()
	case ActionOverlayClick:
		s.shell.OverlayClick()
	case ActionKeyDown:
		s.shell.KeyDown(ev.Key)
	case ActionToggleNav:
		s.shell.ToggleNav()
	case ActionNavLink:
		s.shell.NavLink()
	default:
		s.logger.DebugContext(ctx, "ignoring unknown ui event", slog.String("action", string(ev.Action)))
		eventsTotal.WithLabelValues("unknown").Inc()
		return s.viewLocked()
	}

	eventsTotal.WithLabelValues(string(ev.Action)).Inc()
	return s.viewLocked()
}

// AddItem adds one unit of productID. It reports false when the product is
// not in the catalog.
func (s *Storefront) AddItem(ctx context.Context, productID int64) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.addLocked(ctx, productID)
	return s.viewLocked(), ok
}

// ChangeQuantity adds delta to the quantity of productID. It reports false
// when the product is not in the cart.
func (s *Storefront) ChangeQuantity(ctx context.Context, productID int64, delta int) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.store.ChangeQuantity(ctx, productID, delta)
	return s.viewLocked(), ok
}

// RemoveItem deletes the line item for productID if present.
func (s *Storefront) RemoveItem(ctx context.Context, productID int64) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.RemoveItem(ctx, productID)
	return s.viewLocked()
}

// Clear empties the cart.
func (s *Storefront) Clear(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear(ctx)
	return s.viewLocked()
}

// Checkout completes the order. It reports false, changing nothing but the
// toast, when the cart is empty.
func (s *Storefront) Checkout(ctx context.Context) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.checkoutLocked(ctx)
	return s.viewLocked(), ok
}

// View returns the current snapshot.
func (s *Storefront) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// ViewWithFragments returns the current snapshot with rendered fragments.
func (s *Storefront) ViewWithFragments(v View) (View, error) {
	c := render.Cart{Items: v.Items, Count: v.ItemCount, Total: v.Total}
	f, err := s.renderer.Fragments(s.catalog.Snapshot(), c)
	if err != nil {
		return View{}, err
	}
	v.Fragments = &f
	return v, nil
}

// Page renders the full document for the current state.
func (s *Storefront) Page() ([]byte, error) {
	s.mu.Lock()
	v := s.viewLocked()
	toastDuration := s.shell.ToastDuration()
	s.mu.Unlock()

	return s.renderer.Page(render.Page{
		Catalog:       s.catalog.Snapshot(),
		Cart:          render.Cart{Items: v.Items, Count: v.ItemCount, Total: v.Total},
		Shell:         v.Shell,
		ToastDuration: toastDuration,
	})
}

// Products returns the catalog snapshot.
func (s *Storefront) Products() catalog.Snapshot {
	return s.catalog.Snapshot()
}

// ReloadCatalog fetches the catalog again. Cart contents are kept; line items
// keep the name, price and image they were added with.
func (s *Storefront) ReloadCatalog(ctx context.Context) (catalog.Snapshot, error) {
	if s.loader == nil {
		return s.catalog.Snapshot(), apperrors.Unavailable("catalog loader not configured", nil)
	}
	err := s.loader.Load(ctx)
	return s.catalog.Snapshot(), err
}

func (s *Storefront) addLocked(ctx context.Context, productID int64) bool {
	product, ok := s.store.AddItem(ctx, productID)
	if !ok {
		s.logger.DebugContext(ctx, "add to cart ignored, product not in catalog",
			slog.Int64("product_id", productID),
			slog.String("catalog_state", string(s.catalog.State())),
		)
		return false
	}
	s.shell.ShowToast(fmt.Sprintf(msgAddedFormat, product.Name))
	return true
}

func (s *Storefront) checkoutLocked(ctx context.Context) bool {
	items := s.store.Items()
	if len(items) == 0 {
		s.shell.ShowToast(MsgCartEmpty)
		return false
	}

	s.shell.ShowToast(MsgCheckoutSuccess)
	s.store.Clear(ctx)
	s.shell.CloseCart()

	s.logger.InfoContext(ctx, "checkout completed",
		slog.Int("item_count", domain.TotalItemCount(items)),
		slog.String("total", domain.TotalPrice(items).String()),
	)

	if s.checkout != nil {
		if err := s.checkout.PublishCheckedOut(ctx, items); err != nil {
			s.logger.WarnContext(ctx, "failed to publish checkout event", slog.String("error", err.Error()))
		}
	}
	return true
}

func (s *Storefront) viewLocked() View {
	items := s.store.Items()
	total := domain.TotalPrice(items)
	return View{
		Items:          items,
		ItemCount:      domain.TotalItemCount(items),
		Total:          total,
		TotalFormatted: total.FormatBRL(),
		Shell:          s.shell.State(),
		CatalogState:   s.catalog.State(),
	}
}
