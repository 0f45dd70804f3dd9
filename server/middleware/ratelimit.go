package middleware

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/errors"
)

// RateLimitConfig configures RateLimit. Zero values mean 60 requests per
// minute per client IP, counted by a Limiter of its own.
type RateLimitConfig struct {
	Limit   int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
	// Limiter keeps the request history. Handlers built from the same
	// Limiter share one budget per key.
	Limiter *Limiter
}

// RateLimit allows at most Limit requests per key in any sliding Window and
// answers the rest with 429 and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	lim := cfg.Limiter
	if lim == nil {
		lim = NewLimiter()
	}
	retry := strconv.Itoa(max(1, int(cfg.Window.Seconds())))

	return func(c *gin.Context) {
		if !lim.Allow(cfg.KeyFunc(c), time.Now(), cfg.Limit, cfg.Window) {
			c.Header("Retry-After", retry)
			abort(c, errors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey limits per client IP.
func IPBasedKey(c *gin.Context) string { return c.ClientIP() }

// SubjectBasedKey limits per authenticated subject, or per IP when Auth did
// not run.
func SubjectBasedKey(c *gin.Context) string {
	if sub := c.GetString(SubjectKey); sub != "" {
		return sub
	}
	return c.ClientIP()
}

// Limiter keeps the accepted request times per key, oldest first. Keys
// that went quiet are dropped on the next sweep, at most once per window.
type Limiter struct {
	mu    sync.Mutex
	hits  map[string][]time.Time
	swept time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{hits: make(map[string][]time.Time)}
}

// expire drops times at or before cutoff. times is sorted.
func expire(times []time.Time, cutoff time.Time) []time.Time {
	i := sort.Search(len(times), func(i int) bool { return times[i].After(cutoff) })
	return times[i:]
}

// Allow records a request for key at now unless key already had limit
// requests in the window ending at now.
func (l *Limiter) Allow(key string, now time.Time, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-window)
	if now.Sub(l.swept) > window {
		for k, times := range l.hits {
			if len(expire(times, cutoff)) == 0 {
				delete(l.hits, k)
			}
		}
		l.swept = now
	}

	recent := expire(l.hits[key], cutoff)
	if len(recent) >= limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}
