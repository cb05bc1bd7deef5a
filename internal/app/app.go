package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/cart"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/catalog"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/config"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/event"
	handler "github.com/neoscienzatechnology-lgtm/ecommerce/internal/handler/http"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/persistence"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/render"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/repository"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/repository/memory"
	redisrepo "github.com/neoscienzatechnology-lgtm/ecommerce/internal/repository/redis"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/ui"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/database"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/health"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httpclient"
	pkgkafka "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/kafka"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/middleware"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/tracing"
)

const (
	serviceName     = "storefront"
	slowOpThreshold = 100 * time.Millisecond
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	loader         *catalog.Loader
	storefront     *storefront.Storefront
	handler        http.Handler
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// The cart is hydrated from storage here; the catalog is fetched by Run.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Enabled = cfg.OTelEnabled
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTelEndpoint
	tracingCfg.SampleRate = cfg.OTelSampleRate
	shutdownTracer, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	database.SetSlowOpLogging(slowOpThreshold, logger)

	a := &App{cfg: cfg, logger: logger, shutdownTracer: shutdownTracer}
	healthHandler := health.NewHandler()

	// Cart storage.
	var kv repository.KV
	switch cfg.StorageBackend {
	case config.StorageRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			_ = shutdownTracer(context.Background())
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		a.rdb = rdb
		kv = redisrepo.NewKV(rdb, cfg.StorageKeyPrefix, cfg.StorageTTL)
	default:
		logger.Warn("using in-memory cart storage; the cart does not survive restarts")
		kv = memory.NewKV()
	}
	healthHandler.RegisterCritical("storage", kv.Ping)

	// Cart events.
	var events *event.Producer
	if cfg.KafkaEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, persistence.DefaultKey, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	if err := a.assemble(ctx, kv, events, healthHandler); err != nil {
		a.close()
		return nil, err
	}

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// assemble builds the storefront on top of kv and hydrates the cart.
func (a *App) assemble(ctx context.Context, kv repository.KV, events *event.Producer, healthHandler *health.Handler) error {
	cat := catalog.New()

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = a.cfg.CatalogTimeout
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		a.logger,
	)
	a.loader = catalog.NewLoader(client, a.cfg.CatalogBaseURL, cat, a.logger)
	healthHandler.RegisterNonCritical("catalog", func(context.Context) error {
		if cat.State() == catalog.StateFailed {
			return errors.New("catalog failed to load")
		}
		return nil
	})

	adapter := persistence.NewAdapter(kv, a.logger)
	store := cart.NewStore(cat, adapter, a.logger)
	items := adapter.Load(ctx)
	store.Hydrate(items)
	a.logger.Info("cart hydrated",
		slog.String("key", adapter.Key()),
		slog.Int("line_items", len(items)),
	)

	if events != nil {
		store.Subscribe(events.OnCartChanged)
	}

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	deps := storefront.Deps{
		Store:    store,
		Catalog:  cat,
		Loader:   a.loader,
		Shell:    ui.NewShell(ui.WithToastDuration(a.cfg.ToastDuration)),
		Renderer: renderer,
		Logger:   a.logger,
	}
	if events != nil {
		deps.Checkout = events
	}
	a.storefront = storefront.New(deps)

	limit := middleware.RateLimitConfig{RPS: a.cfg.RateLimitRPS, Burst: a.cfg.RateLimitBurst}
	a.handler = handler.NewRouter(a.storefront, healthHandler, handler.RouterConfig{
		CatalogFile:       a.cfg.CatalogFile,
		RateLimit:         limit,
		TrustProxyHeaders: a.cfg.TrustProxyHeaders,
	}, a.logger)
	return nil
}

// Handler returns the HTTP handler of the storefront.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run fetches the catalog in the background, starts the HTTP server and
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// The catalog may be served by this process, so the fetch starts once
	// the listener is being brought up.
	a.loader.LoadAsync(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
	}

	a.close()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases the Kafka writer and the Redis client.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
}
