package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/ui"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func loadedSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		State: catalog.StateLoaded,
		Products: []domain.Product{
			{ID: 1, Name: "Fone Bluetooth", Description: "Som sem fio", Price: 8990, Image: "img/fone.jpg"},
			{ID: 2, Name: "Relógio", Description: "Smartwatch", Price: 123456, Image: "img/relogio.jpg"},
		},
	}
}

func TestProductGrid_Loaded(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.ProductGrid(loadedSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(html, `class="product-card"`))
	assert.Contains(t, html, `id="produto-2-relogio"`)
	assert.Contains(t, html, `data-action="add-to-cart" data-product-id="1"`)
	assert.Contains(t, html, `data-product-id="2"`)
	assert.Contains(t, html, "Fone Bluetooth")
	assert.Contains(t, html, "Som sem fio")
	assert.Contains(t, html, "R$\u00a089,90")
	assert.Contains(t, html, "R$\u00a01.234,56")
	assert.NotContains(t, html, CatalogErrorMessage)
}

func TestProductGrid_Failed(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.ProductGrid(catalog.Snapshot{State: catalog.StateFailed, Error: "status 500"})
	require.NoError(t, err)

	assert.Contains(t, html, CatalogErrorMessage)
	assert.NotContains(t, html, "product-card")
}

func TestProductGrid_Pending(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.ProductGrid(catalog.Snapshot{State: catalog.StatePending})
	require.NoError(t, err)

	assert.Contains(t, html, CatalogLoadingMessage)
	assert.NotContains(t, html, "product-card")
}

func TestProductGrid_EscapesProductText(t *testing.T) {
	r := newTestRenderer(t)
	snap := catalog.Snapshot{
		State:    catalog.StateLoaded,
		Products: []domain.Product{{ID: 1, Name: "<script>x</script>", Price: 100, Image: "a.jpg"}},
	}

	html, err := r.ProductGrid(snap)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestCartPanel_Empty(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.CartPanel(NewCart(nil))
	require.NoError(t, err)

	assert.Contains(t, html, `class="cart-empty active"`)
	assert.Contains(t, html, `id="cart-footer" hidden`)
	assert.NotContains(t, html, `class="cart-item"`)
}

func TestCartPanel_WithItems(t *testing.T) {
	r := newTestRenderer(t)
	c := NewCart([]domain.LineItem{
		{ID: 1, Name: "Camiseta", Price: 1000, Image: "c.jpg", Quantity: 2},
		{ID: 3, Name: "Caneca", Price: 550, Image: "k.jpg", Quantity: 1},
	})

	html, err := r.CartPanel(c)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(html, `class="cart-item"`))
	for _, action := range []string{"decrease", "increase", "remove"} {
		assert.Contains(t, html, `data-action="`+action+`" data-product-id="1"`)
		assert.Contains(t, html, `data-action="`+action+`" data-product-id="3"`)
	}
	assert.Contains(t, html, "Remover")
	assert.Contains(t, html, `<span class="cart-item-quantity">2</span>`)
	assert.Contains(t, html, "R$\u00a025,50")
	assert.Contains(t, html, `class="cart-empty"`)
	assert.NotContains(t, html, `id="cart-footer" hidden`)
}

func TestCartItems_PreservesOrder(t *testing.T) {
	r := newTestRenderer(t)
	c := NewCart([]domain.LineItem{
		{ID: 7, Name: "Segundo", Price: 100, Quantity: 1},
		{ID: 4, Name: "Primeiro", Price: 100, Quantity: 1},
	})

	html, err := r.CartItems(c)
	require.NoError(t, err)

	assert.Less(t, strings.Index(html, "Segundo"), strings.Index(html, "Primeiro"))
}

func TestFragments(t *testing.T) {
	r := newTestRenderer(t)
	c := NewCart([]domain.LineItem{{ID: 1, Name: "Fone", Price: 8990, Quantity: 3}})

	f, err := r.Fragments(loadedSnapshot(), c)
	require.NoError(t, err)

	assert.Equal(t, "3", f.CartCount)
	assert.Equal(t, "R$\u00a0269,70", f.CartTotal)
	assert.Contains(t, f.ProductsGrid, "product-card")
	assert.Contains(t, f.CartPanel, "cart-item")
}

func TestPage(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Page(Page{
		Catalog: loadedSnapshot(),
		Cart:    NewCart([]domain.LineItem{{ID: 1, Name: "Fone", Price: 8990, Quantity: 2}}),
		Shell: ui.ShellState{
			CartOpen:     true,
			ToastVisible: true,
			ToastMessage: "Fone adicionado ao carrinho!",
		},
		ToastDuration: 3 * time.Second,
	})
	require.NoError(t, err)

	page := string(html)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>ModernShop</title>")
	assert.Contains(t, page, `<span class="cart-count" id="cart-count">2</span>`)
	assert.Contains(t, page, `class="cart-modal active"`)
	assert.Contains(t, page, `class="toast active"`)
	assert.Contains(t, page, "Fone adicionado ao carrinho!")
	assert.Contains(t, page, `class="mobile-nav" id="mobile-nav"`)
	assert.Contains(t, page, "3000")
	assert.Contains(t, page, "product-card")
}

func TestPage_FailedCatalog(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Page(Page{Catalog: catalog.Snapshot{State: catalog.StateFailed}, Cart: NewCart(nil)})
	require.NoError(t, err)

	assert.Contains(t, string(html), CatalogErrorMessage)
	assert.Contains(t, string(html), `<span class="cart-count" id="cart-count">0</span>`)
}

func TestNewCart(t *testing.T) {
	c := NewCart([]domain.LineItem{
		{ID: 1, Price: 1000, Quantity: 2},
		{ID: 2, Price: 550, Quantity: 1},
	})

	assert.Equal(t, 3, c.Count)
	assert.Equal(t, domain.Cents(2550), c.Total)
	assert.False(t, c.Empty())
	assert.True(t, NewCart(nil).Empty())
}

func TestProductAnchor(t *testing.T) {
	assert.Equal(t, "produto-3-calca-jeans", ProductAnchor(domain.Product{ID: 3, Name: "Calça Jeans"}))
	assert.Equal(t, "produto-4", ProductAnchor(domain.Product{ID: 4, Name: "!!!"}))
}
