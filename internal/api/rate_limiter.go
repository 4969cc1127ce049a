package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	uploadRatePerSecond = 0.5
	uploadRateBurst     = 10
	setupRatePerSecond  = 0.1
	setupRateBurst      = 5
	rateBucketIdleTTL   = 10 * time.Minute
)

type rateBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Idle buckets are pruned
// lazily on access.
type ipRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rateBucket
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (limiter *ipRateLimiter) allow(key string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	if now.Sub(limiter.lastPrune) > rateBucketIdleTTL {
		for bucketKey, bucket := range limiter.buckets {
			if now.Sub(bucket.lastSeen) > rateBucketIdleTTL {
				delete(limiter.buckets, bucketKey)
			}
		}
		limiter.lastPrune = now
	}

	bucket, ok := limiter.buckets[key]
	if !ok {
		bucket = &rateBucket{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.buckets[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

func (handler *Handler) rateLimited(limiter *ipRateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.allow(requestLimiterKey(c), handler.now()) {
			return handler.apiError(c, fiber.StatusTooManyRequests, "rate_limited")
		}
		return c.Next()
	}
}
