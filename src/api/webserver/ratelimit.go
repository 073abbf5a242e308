package webserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window counter keyed by caller identity.
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	rate    int
	window  time.Duration
	stopped chan struct{}
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:    make(map[string][]time.Time),
		rate:    rate,
		window:  window,
		stopped: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopped:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for key, times := range rl.seen {
				kept := times[:0]
				for _, t := range times {
					if t.After(cutoff) {
						kept = append(kept, t)
					}
				}
				if len(kept) == 0 {
					delete(rl.seen, key)
				} else {
					rl.seen[key] = kept
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() { close(rl.stopped) }

// Allow records an attempt for key and reports whether it is within the
// window budget.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	kept := rl.seen[key][:0]
	for _, t := range rl.seen[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.rate {
		rl.seen[key] = kept
		return false
	}
	rl.seen[key] = append(kept, time.Now())
	return true
}

// RateLimitMiddleware keys on the authenticated user when present, the
// client IP otherwise.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("uid")
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"err": fmt.Sprintf("rate limit exceeded: %d requests per %v", rl.rate, rl.window),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
