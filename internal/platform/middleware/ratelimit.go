package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/labstack/echo/v4"

	"github.com/medreview/medreview/internal/platform/metrics"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int64
	// IdleSweep is how often buckets that have refilled completely are dropped.
	IdleSweep time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 20, BurstSize: 40, IdleSweep: 10 * time.Minute}
}

// clientBuckets keeps one token bucket per client key.
type clientBuckets struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	buckets   map[string]*ratelimit.Bucket
	lastSweep time.Time
	now       func() time.Time
}

func newClientBuckets(cfg RateLimitConfig) *clientBuckets {
	if cfg.IdleSweep <= 0 {
		cfg.IdleSweep = 10 * time.Minute
	}
	return &clientBuckets{
		cfg:       cfg,
		buckets:   make(map[string]*ratelimit.Bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *clientBuckets) get(key string) *ratelimit.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now := s.now(); now.Sub(s.lastSweep) >= s.cfg.IdleSweep {
		for k, b := range s.buckets {
			if b.Available() >= b.Capacity() {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = ratelimit.NewBucketWithRate(s.cfg.RequestsPerSecond, s.cfg.BurstSize)
		s.buckets[key] = b
	}
	metrics.RateLimiterBuckets.Set(float64(len(s.buckets)))
	return b
}

func (s *clientBuckets) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit throttles each client IP with its own token bucket.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 || cfg.BurstSize <= 0 {
		cfg = DefaultRateLimitConfig()
	}
	return rateLimitWith(newClientBuckets(cfg))
}

func rateLimitWith(store *clientBuckets) echo.MiddlewareFunc {
	limit := strconv.FormatInt(store.cfg.BurstSize, 10)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.get(c.RealIP())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			if bucket.TakeAvailable(1) < 1 {
				retry := int(1/store.cfg.RequestsPerSecond) + 1
				h.Set("X-RateLimit-Remaining", "0")
				h.Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			h.Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
			return next(c)
		}
	}
}
