package security

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter implements a fixed window token bucket per key. Keys are
// arbitrary strings, for example a client IP or "child:42".
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter
// rate: number of requests allowed per window
// window: time window for rate limiting
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(rate, window, time.Now)
	go rl.cleanupBuckets(time.Hour)
	return rl
}

func newRateLimiter(rate int, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Allow consumes a token for key and reports whether the request may proceed
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.Reserve(key)
	return ok
}

// Reserve consumes a token for key. When the bucket is empty it returns
// false and the time until the window resets.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	if rl.rate <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[key] = b
	}

	// Refill tokens once the window has passed
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.lastRefill.Add(rl.window).Sub(now)
}

// Stop ends the background cleanup
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// cleanupBuckets removes idle entries to prevent memory leaks
func (rl *RateLimiter) cleanupBuckets(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// GetClientIP extracts the client IP from the request
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (when behind proxy); the first hop is the client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}
