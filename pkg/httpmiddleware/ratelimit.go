package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max requests per Window. Zero or negative disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc extracts the client key. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window counts requests of one key in the current and previous fixed
// windows. The previous count is weighted by its overlap with the sliding
// window ending now.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

// limiter is a sliding window counter keyed by client.
type limiter struct {
	max    int
	size   time.Duration
	now    func() time.Time
	mu     sync.Mutex
	counts map[string]*window
}

func newLimiter(limit int, size time.Duration) *limiter {
	return &limiter{
		max:    limit,
		size:   size,
		now:    time.Now,
		counts: make(map[string]*window),
	}
}

type verdict struct {
	allowed   bool
	remaining int
	reset     time.Time
}

func (l *limiter) take(key string) verdict {
	now := l.now()
	start := now.Truncate(l.size)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.counts[key]
	switch {
	case !ok:
		w = &window{start: start}
		l.counts[key] = w
	case start.Sub(w.start) >= 2*l.size:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.curr}
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.size)
	used := w.prev*math.Max(overlap, 0) + w.curr
	v := verdict{reset: w.start.Add(l.size)}
	if used >= float64(l.max) {
		return v
	}
	w.curr++
	v.allowed = true
	v.remaining = max(int(float64(l.max)-used-1), 0)
	return v
}

// evict drops keys idle for two windows.
func (l *limiter) evict() {
	cutoff := l.now().Add(-2 * l.size)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, w := range l.counts {
		if w.start.Before(cutoff) {
			delete(l.counts, k)
		}
	}
}

// RateLimit enforces a per-client request budget and answers 429 with a
// Retry-After header once it is spent. Idle clients are evicted until ctx
// is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientIP
	}

	l := newLimiter(cfg.Max, cfg.Window)
	go func() {
		t := time.NewTicker(2 * cfg.Window)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.evict()
			}
		}
	}()

	limit := strconv.Itoa(cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := l.take(keyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(v.reset.Unix(), 10))
			if !v.allowed {
				retry := math.Ceil(max(v.reset.Sub(l.now()).Seconds(), 0))
				h.Set("Retry-After", strconv.Itoa(int(retry)))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
