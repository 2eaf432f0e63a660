package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows maxRequests per window per client IP, with a burst of maxRequests.
// Idle entries are swept at most once a minute.
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu        sync.Mutex
		store     = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	r := rate.Every(window / time.Duration(maxRequests))
	retryAfter := strconv.Itoa(int((window/time.Duration(maxRequests))/time.Second) + 1)

	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for ip, v := range store {
				if now.Sub(v.lastSeen) > expiry {
					delete(store, ip)
				}
			}
			lastSweep = now
		}
		v, exists := store[key]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, maxRequests)}
			store[key] = v
		}
		v.lastSeen = now
		mu.Unlock()

		if !v.limiter.Allow() {
			c.Header("Retry-After", retryAfter)
			common.Fail(c, http.StatusTooManyRequests, common.CodeRateLimited, "Too many requests, please slow down")
			return
		}
		c.Next()
	}
}
