package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/ui"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/slug"
)

// Messages shown in the product grid when there are no products to list.
const (
	CatalogErrorMessage   = "Erro ao carregar os produtos. Por favor, tente novamente mais tarde."
	CatalogLoadingMessage = "Carregando produtos..."
)

// DefaultTitle is the store name shown in the header.
const DefaultTitle = "ModernShop"

//go:embed templates/*.html
var templateFS embed.FS

// Cart is the cart data the templates need.
type Cart struct {
	Items []domain.LineItem
	Count int
	Total domain.Cents
}

// Empty reports whether the cart has no line items.
func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// NewCart derives counts and totals from items.
func NewCart(items []domain.LineItem) Cart {
	return Cart{
		Items: items,
		Count: domain.TotalItemCount(items),
		Total: domain.TotalPrice(items),
	}
}

// Page is everything the full page renders.
type Page struct {
	Title         string
	Catalog       catalog.Snapshot
	Cart          Cart
	Shell         ui.ShellState
	ToastDuration time.Duration
	EventsPath    string
}

// ToastMillis is the toast duration for the page script.
func (p Page) ToastMillis() int64 {
	return p.ToastDuration.Milliseconds()
}

// Fragments are the parts of the page that change after an event.
type Fragments struct {
	ProductsGrid string `json:"products_grid"`
	CartPanel    string `json:"cart_panel"`
	CartCount    string `json:"cart_count"`
	CartTotal    string `json:"cart_total"`
}

// ProductAnchor is the element id of a product card, e.g. "produto-3-relogio-classico".
func ProductAnchor(p domain.Product) string {
	id := "produto-" + strconv.FormatInt(p.ID, 10)
	if s := slug.Generate(p.Name); s != "" {
		id += "-" + s
	}
	return id
}

// Renderer projects catalog and cart state into HTML.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("storefront").Funcs(template.FuncMap{
		"brl":            func(c domain.Cents) string { return c.FormatBRL() },
		"anchor":         ProductAnchor,
		"errorMessage":   func() string { return CatalogErrorMessage },
		"loadingMessage": func() string { return CatalogLoadingMessage },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full document.
func (r *Renderer) Page(p Page) ([]byte, error) {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.ToastDuration <= 0 {
		p.ToastDuration = ui.DefaultToastDuration
	}
	if p.EventsPath == "" {
		p.EventsPath = "/events"
	}
	return r.execute("page", p)
}

// ProductGrid renders the product cards, or the loading or error panel.
func (r *Renderer) ProductGrid(snap catalog.Snapshot) (string, error) {
	b, err := r.execute("products", snap)
	return string(b), err
}

// CartPanel renders the cart body: item list, empty state and footer.
func (r *Renderer) CartPanel(c Cart) (string, error) {
	b, err := r.execute("cart-panel", c)
	return string(b), err
}

// CartItems renders only the line items.
func (r *Renderer) CartItems(c Cart) (string, error) {
	b, err := r.execute("cart-items", c)
	return string(b), err
}

// Fragments renders every part of the page an event can change.
func (r *Renderer) Fragments(snap catalog.Snapshot, c Cart) (Fragments, error) {
	grid, err := r.ProductGrid(snap)
	if err != nil {
		return Fragments{}, err
	}
	panel, err := r.CartPanel(c)
	if err != nil {
		return Fragments{}, err
	}
	return Fragments{
		ProductsGrid: grid,
		CartPanel:    panel,
		CartCount:    fmt.Sprint(c.Count),
		CartTotal:    c.Total.FormatBRL(),
	}, nil
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
