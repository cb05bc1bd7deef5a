package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/cart"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/persistence"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/render"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/repository/memory"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/ui"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/health"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httputil"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/middleware"
)

const testCatalog = `[
	{"id":1,"name":"Fone Bluetooth","description":"Som sem fio","price":89.90,"image":"img/fone.jpg"},
	{"id":2,"name":"Camiseta","description":"Algodão","price":10.00,"image":"img/camiseta.jpg"},
	{"id":3,"name":"Caneca","description":"Cerâmica","price":5.50,"image":"img/caneca.jpg"}
]`

type stubFetcher struct {
	status int
	body   string
}

func (f *stubFetcher) Get(context.Context, string) (*http.Response, error) {
	return &http.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

type testServer struct {
	handler http.Handler
	fetcher *stubFetcher
	adapter *persistence.Adapter
}

func newTestServer(t *testing.T, catalogFile string) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, RouterConfig{CatalogFile: catalogFile})
}

func newTestServerWithConfig(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat := catalog.New()
	fetcher := &stubFetcher{status: http.StatusOK, body: testCatalog}
	loader := catalog.NewLoader(fetcher, "http://shop.test", cat, logger)
	require.NoError(t, loader.Load(context.Background()))

	adapter := persistence.NewAdapter(memory.NewKV(), logger)
	renderer, err := render.New()
	require.NoError(t, err)

	sf := storefront.New(storefront.Deps{
		Store:    cart.NewStore(cat, adapter, logger),
		Catalog:  cat,
		Loader:   loader,
		Shell:    ui.NewShell(),
		Renderer: renderer,
		Logger:   logger,
	})

	h := NewRouter(sf, health.NewHandler(), cfg, logger)
	return &testServer{handler: h, fetcher: fetcher, adapter: adapter}
}

func (s *testServer) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, target, "application/json", body)
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Nil(t, env.Error, "unexpected error: %+v", env.Error)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	return env.Error
}

func TestPage(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `data-product-id="1"`)
	assert.Contains(t, rec.Body.String(), "Fone Bluetooth")
}

func TestEvent_JSON(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/events", `{"action":"add-to-cart","product_id":2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[storefront.View](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Camiseta", view.Items[0].Name)
	assert.Equal(t, 1, view.ItemCount)
	assert.Equal(t, "Camiseta adicionado ao carrinho!", view.Shell.ToastMessage)
	require.NotNil(t, view.Fragments)
	assert.Equal(t, "1", view.Fragments.CartCount)
	assert.Contains(t, view.Fragments.CartPanel, `data-action="remove" data-product-id="2"`)
}

func TestEvent_Form(t *testing.T) {
	s := newTestServer(t, "")
	form := url.Values{"action": {"add-to-cart"}, "product_id": {"3"}}

	s.do(t, http.MethodPost, "/events", "application/x-www-form-urlencoded", form.Encode())
	rec := s.do(t, http.MethodPost, "/events", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[storefront.View](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestEvent_Keydown(t *testing.T) {
	s := newTestServer(t, "")
	s.doJSON(t, http.MethodPost, "/events", `{"action":"open-cart"}`)

	rec := s.doJSON(t, http.MethodPost, "/events", `{"action":"keydown","key":"Escape"}`)

	view := decode[storefront.View](t, rec)
	assert.False(t, view.Shell.CartOpen)
}

func TestEvent_UnknownActionIsNoop(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/events", `{"action":"dance"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[storefront.View](t, rec)
	assert.Empty(t, view.Items)
}

func TestEvent_BadInput(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    string
	}{
		{name: "malformed json", contentType: "application/json", body: `{"action":`, wantCode: "INVALID_INPUT"},
		{name: "missing action", contentType: "application/json", body: `{"product_id":1}`, wantCode: "VALIDATION_ERROR"},
		{name: "non-integer form id", contentType: "application/x-www-form-urlencoded", body: "action=remove&product_id=abc", wantCode: "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/events", tt.contentType, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestCartAPI_Lifecycle(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	added := decode[MutationResponse](t, rec)
	assert.True(t, added.Applied)

	s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)
	s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", "", "")
	view := decode[storefront.View](t, rec)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "25.50", view.Total.String())
	assert.JSONEq(t, `25.50`, mustJSON(t, view.Total))

	rec = s.doJSON(t, http.MethodPatch, "/api/v1/cart/items/3", `{"delta":-1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	changed := decode[MutationResponse](t, rec)
	assert.True(t, changed.Applied)
	assert.Len(t, changed.Cart.Items, 1)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[storefront.View](t, rec).Items)
	assert.Empty(t, s.adapter.Load(context.Background()))
}

func TestCartAPI_UnknownProductIsNoop(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":99}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[MutationResponse](t, rec)
	assert.False(t, resp.Applied)
	assert.Empty(t, resp.Cart.Items)

	rec = s.doJSON(t, http.MethodPatch, "/api/v1/cart/items/99", `{"delta":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[MutationResponse](t, rec).Applied)
}

func TestCartAPI_ExtremeDeltas(t *testing.T) {
	s := newTestServer(t, "")
	s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)

	rec := s.doJSON(t, http.MethodPatch, "/api/v1/cart/items/2", `{"delta":9223372036854775807}`)
	require.Equal(t, http.StatusOK, rec.Code)
	grown := decode[MutationResponse](t, rec)
	assert.True(t, grown.Applied)
	require.Len(t, grown.Cart.Items, 1)
	assert.Equal(t, math.MaxInt, grown.Cart.Items[0].Quantity)
	assert.Equal(t, math.MaxInt, grown.Cart.ItemCount)

	rec = s.doJSON(t, http.MethodPatch, "/api/v1/cart/items/2", `{"delta":-9223372036854775808}`)
	require.Equal(t, http.StatusOK, rec.Code)
	shrunk := decode[MutationResponse](t, rec)
	assert.True(t, shrunk.Applied)
	assert.Empty(t, shrunk.Cart.Items)
	assert.Empty(t, s.adapter.Load(context.Background()))
}

func TestCartAPI_BadInput(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"zero product id", http.MethodPost, "/api/v1/cart/items", `{"product_id":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"string product id", http.MethodPost, "/api/v1/cart/items", `{"product_id":"x"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing delta", http.MethodPatch, "/api/v1/cart/items/1", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"non-integer path id", http.MethodPatch, "/api/v1/cart/items/abc", `{"delta":1}`, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"negative path id", http.MethodDelete, "/api/v1/cart/items/-4", "", http.StatusBadRequest, "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.doJSON(t, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestCartAPI_RejectsNonJSON(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", "text/plain", "product_id=1")

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeError(t, rec).Code)
}

func TestCartAPI_ClearAndCheckout(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[MutationResponse](t, rec)
	assert.False(t, empty.Applied)
	assert.Equal(t, storefront.MsgCartEmpty, empty.Message)

	s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	rec = s.do(t, http.MethodPost, "/api/v1/checkout", "", "")
	done := decode[MutationResponse](t, rec)
	assert.True(t, done.Applied)
	assert.Equal(t, storefront.MsgCheckoutSuccess, done.Message)
	assert.Empty(t, done.Cart.Items)

	s.doJSON(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	rec = s.do(t, http.MethodDelete, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[storefront.View](t, rec).Items)
}

func TestCatalogAPI(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ProductListResponse](t, rec)
	assert.Equal(t, catalog.StateLoaded, list.State)
	assert.Len(t, list.Items, 3)
	assert.Equal(t, 3, list.TotalCount)

	rec = s.do(t, http.MethodGet, "/api/v1/products?page=2&per_page=2", "", "")
	page := decode[ProductListResponse](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)

	s.fetcher.status = http.StatusInternalServerError
	rec = s.do(t, http.MethodPost, "/api/v1/catalog/reload", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, rec.Body.String(), render.CatalogErrorMessage)

	rec = s.do(t, http.MethodGet, "/api/v1/products", "", "")
	failed := decode[ProductListResponse](t, rec)
	assert.Equal(t, catalog.StateFailed, failed.State)
	assert.NotEmpty(t, failed.Error)
	assert.Empty(t, failed.Items)

	s.fetcher.status = http.StatusOK
	rec = s.do(t, http.MethodPost, "/api/v1/catalog/reload", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[catalog.Snapshot](t, rec).Products, 3)
}

func TestCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	s := newTestServer(t, path)

	rec := s.do(t, http.MethodGet, "/products.json", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, testCatalog, rec.Body.String())
}

func TestCatalogFile_NotRegisteredWithoutPath(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/products.json", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", "").Code)

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRateLimit_EventsAndAPIShareBucket(t *testing.T) {
	s := newTestServerWithConfig(t, RouterConfig{
		RateLimit: middleware.RateLimitConfig{RPS: 0.01, Burst: 2},
	})

	assert.Equal(t, http.StatusOK, s.doJSON(t, http.MethodGet, "/api/v1/cart", "").Code)
	assert.Equal(t, http.StatusOK, s.doJSON(t, http.MethodPost, "/events", `{"action":"toggle-nav"}`).Code)

	rec := s.doJSON(t, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = s.doJSON(t, http.MethodPost, "/events", `{"action":"toggle-nav"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Page loads and health checks stay outside the limit.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", "").Code)
}

func TestRateLimit_TrustedProxyHeaders(t *testing.T) {
	s := newTestServerWithConfig(t, RouterConfig{
		RateLimit:         middleware.RateLimitConfig{RPS: 0.01, Burst: 1},
		TrustProxyHeaders: true,
	})

	get := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, get("203.0.113.7"))
	assert.Equal(t, http.StatusOK, get("203.0.113.8"))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
