package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httpclient"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/validator"
)

// ResourcePath is the catalog document path relative to the base URL.
const ResourcePath = "products.json"

// maxCatalogBytes bounds the catalog document.
const maxCatalogBytes = 4 << 20

var fetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_catalog_fetch_total",
		Help: "Catalog fetches by result",
	},
	[]string{"result"},
)

// Fetcher issues the GET for the catalog document.
// *httpclient.CircuitBreakerClient satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Loader fetches the catalog document and publishes it into a Catalog.
type Loader struct {
	client  Fetcher
	url     string
	catalog *Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader creates a loader for <baseURL>/products.json.
func NewLoader(client Fetcher, baseURL string, catalog *Catalog, logger *slog.Logger) *Loader {
	return &Loader{
		client:  client,
		url:     strings.TrimRight(baseURL, "/") + "/" + ResourcePath,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// URL returns the catalog document URL.
func (l *Loader) URL() string {
	return l.url
}

// Catalog returns the catalog this loader publishes into.
func (l *Loader) Catalog() *Catalog {
	return l.catalog
}

// FetchCatalog issues one GET for the catalog document. Any non-2xx status
// is a failure. Records that fail to decode or validate are dropped and
// logged.
func (l *Loader) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	resp, err := l.client.Get(ctx, l.url)
	if err != nil {
		return nil, apperrors.Unavailable("catalog unavailable", err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	var records []json.RawMessage
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes))
	if err := dec.Decode(&records); err != nil {
		return nil, apperrors.Corrupt("catalog", err)
	}

	products := make([]domain.Product, 0, len(records))
	for i, raw := range records {
		var p domain.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			l.logger.WarnContext(ctx, "skipping undecodable catalog record",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := validator.Validate(p); err != nil {
			l.logger.WarnContext(ctx, "skipping invalid catalog record",
				slog.Int("index", i),
				slog.Int64("id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Load runs FetchCatalog and publishes the outcome: loaded with the products,
// or failed with an empty catalog. There is no automatic retry.
func (l *Loader) Load(ctx context.Context) error {
	l.catalog.setPending()

	products, err := l.FetchCatalog(ctx)
	if err != nil {
		fetchTotal.WithLabelValues("failure").Inc()
		l.catalog.setFailed(err)
		attrs := []any{slog.String("url", l.url), slog.String("error", err.Error())}
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			attrs = append(attrs, slog.Bool("circuit_open", true))
		}
		l.logger.ErrorContext(ctx, "failed to load catalog", attrs...)
		return fmt.Errorf("load catalog: %w", err)
	}

	fetchTotal.WithLabelValues("success").Inc()
	l.catalog.setLoaded(products, l.now())
	l.logger.InfoContext(ctx, "catalog loaded",
		slog.String("url", l.url),
		slog.Int("products", len(products)),
	)
	return nil
}

// LoadAsync starts Load in its own goroutine and returns a channel closed
// when it finishes. Errors are already logged and reflected in the catalog.
func (l *Loader) LoadAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Load(ctx)
	}()
	return done
}
