package http

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client bucket is kept.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter is a per-client-IP token bucket. Buckets are created on demand
// and idle ones are swept every few thousand lookups.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
}

// newRateLimiter allows perMinute requests per client per minute with the
// same burst. A non-positive perMinute disables limiting.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		visitors: make(map[string]*visitor),
	}
}

func (r *rateLimiter) allow(key string) bool {
	if r == nil {
		return true
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookups++
	if r.lookups >= 5000 {
		for k, v := range r.visitors {
			if now.Sub(v.lastSeen) >= visitorTTL {
				delete(r.visitors, k)
			}
		}
		r.lookups = 0
	}

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (r *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		fail(c, ErrCodeRateLimited, "rate limit exceeded")
	}
}
