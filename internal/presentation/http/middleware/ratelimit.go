package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter tracks one token bucket per client IP with last-seen eviction.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rateper  rate.Limit
	burst    int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*clientLimiter),
		rateper:  rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cl, ok := l.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rateper, l.burst)}
		l.limiters[ip] = cl
	}
	cl.lastSeen = now

	// Bound the map by evicting idle clients.
	if len(l.limiters) > 10000 {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(l.limiters, key)
			}
		}
	}

	return cl.limiter.Allow()
}

// RateLimit rejects clients exceeding perMinute requests with the given
// burst allowance. Applied to credential endpoints to slow brute-forcing.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	limiter := newIPLimiter(perMinute, burst)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
