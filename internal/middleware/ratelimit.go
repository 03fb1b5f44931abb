package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
	"github.com/hongminglow/fraudpulse-be/internal/metrics"
)

const (
	// staleLimiterTTL is how long a per-IP limiter can be idle before cleanup.
	staleLimiterTTL = 10 * time.Minute

	cleanupInterval = 1 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client-IP token bucket to the routes it wraps.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	endpoint string
	logger   *slog.Logger
	nowFunc  func() time.Time
	clientIP *ClientIPResolver
	stopOnce sync.Once
	stopCh   chan struct{}
}

// RateLimiterOption customises a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClientIPResolver replaces the default RemoteAddr-only resolver.
func WithClientIPResolver(resolver *ClientIPResolver) RateLimiterOption {
	return func(rl *RateLimiter) {
		if resolver != nil {
			rl.clientIP = resolver
		}
	}
}

// NewRateLimiter allows perMinute requests per client IP on endpoint, with a
// burst of the same size. It starts a background sweeper; call Stop to end it.
func NewRateLimiter(endpoint string, perMinute int, logger *slog.Logger, opts ...RateLimiterOption) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		endpoint: endpoint,
		logger:   logger.With("component", "ratelimit"),
		nowFunc:  time.Now,
		clientIP: &ClientIPResolver{},
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	go rl.cleanupLoop()
	return rl
}

// Stop shuts down the background cleanup goroutine. Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimiter) evictStale() {
	now := rl.nowFunc()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > staleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

// LimiterCount returns the number of tracked clients.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Wrap rejects requests over the limit with 429.
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := rl.clientIP.ClientIP(r)
		if !rl.limiterFor(clientIP).AllowN(rl.nowFunc(), 1) {
			metrics.RateLimited.WithLabelValues(rl.endpoint).Inc()
			rl.logger.Warn("rate limit exceeded",
				"endpoint", rl.endpoint,
				"path", r.URL.Path,
				"client_ip", clientIP,
			)
			w.Header().Set("Retry-After", "60")
			respond.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	now := rl.nowFunc()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[clientIP]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[clientIP] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}
