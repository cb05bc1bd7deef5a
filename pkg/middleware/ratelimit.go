package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/httputil"
)

// RateLimitConfig sets a per-client token bucket. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// IdleTTL evicts clients not seen for this long. Defaults to 3 minutes.
	IdleTTL time.Duration
}

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected with 429 by route",
	},
	[]string{"route"},
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientStore keeps one limiter per client address. Idle entries are swept
// on access at most once per ttl.
type clientStore struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientStore(cfg RateLimitConfig, now func() time.Time) *clientStore {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &clientStore{
		clients:   make(map[string]*client),
		limit:     rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		ttl:       cfg.IdleTTL,
		lastSweep: now(),
		now:       now,
	}
}

func (s *clientStore) allow(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for k, c := range s.clients {
			if now.Sub(c.lastSeen) > s.ttl {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	c, ok := s.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[addr] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (s *clientStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit rejects requests beyond the client's token bucket with a 429
// RATE_LIMITED envelope. Clients are keyed by the host part of RemoteAddr;
// mount chi's RealIP first when running behind a trusted proxy.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return rateLimit(cfg, logger, time.Now)
}

func rateLimit(cfg RateLimitConfig, logger *slog.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newClientStore(cfg, now)
	retryAfter := strconv.Itoa(int(max(1, 1/cfg.RPS)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if store.allow(addr) {
				next.ServeHTTP(w, r)
				return
			}

			rateLimitedTotal.WithLabelValues(routePattern(r)).Inc()
			logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client", addr),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", retryAfter)
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    apperrors.CodeRateLimited,
					Message: "too many requests",
				},
			})
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
