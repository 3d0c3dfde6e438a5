package middlewares

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/utils"
	"golang.org/x/time/rate"
)

// RateLimiter is a process-local sliding-window limiter. Each key keeps the
// admission times that still fall inside its window.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow admits a request for key if fewer than max requests were admitted in
// the last windowSeconds. Non-positive max or window always admit.
func (rl *RateLimiter) Allow(key string, max int, windowSeconds int) bool {
	if max <= 0 || windowSeconds <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)

	queue := rl.entries[key]
	i := 0
	for i < len(queue) && !queue[i].After(cutoff) {
		i++
	}
	queue = queue[i:]

	if len(queue) >= max {
		rl.entries[key] = queue
		return false
	}
	rl.entries[key] = append(queue, now)
	return true
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// Prune drops keys whose newest admission is older than window.
func (rl *RateLimiter) Prune(window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-window)
	for key, queue := range rl.entries {
		if len(queue) == 0 || !queue[len(queue)-1].After(cutoff) {
			delete(rl.entries, key)
		}
	}
}

// Limit gates a guest action per client IP, keyed "action:ip".
func (rl *RateLimiter) Limit(action string, max int, windowSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", action, c.ClientIP())
		if !rl.Allow(key, max, windowSeconds) {
			utils.InfoLogger.Warnf("Rate limit hit for %s", key)
			utils.RespondError(c, utils.ErrTooManyRequests("too many requests, please slow down"))
			return
		}
		c.Next()
	}
}

// NewStrictRateLimiter allows 5 attempts per minute per client IP. Used on staff login.
func NewStrictRateLimiter() gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(12*time.Second), 5)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.JSONResponse{
				Status:  false,
				Message: "too many login attempts, please wait a moment",
			})
			return
		}
		c.Next()
	}
}
