package api

import (
	"strings"
	"sync"
	"time"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	loginAttemptsLimit  = 8
	loginAttemptsWindow = 15 * time.Minute
)

// attemptLimiter counts failed sign-ins per key over a sliding window.
type attemptLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	failures map[string][]time.Time
}

func newAttemptLimiter(limit int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit:    limit,
		window:   window,
		failures: make(map[string][]time.Time),
	}
}

// retryAfter reports how long key stays blocked. Zero means the next attempt
// is allowed.
func (limiter *attemptLimiter) retryAfter(key string, now time.Time) time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	recent := limiter.recentLocked(key, now)
	if len(recent) < limiter.limit {
		return 0
	}
	return recent[len(recent)-limiter.limit].Add(limiter.window).Sub(now)
}

func (limiter *attemptLimiter) recordFailure(key string, now time.Time) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.failures[key] = append(limiter.recentLocked(key, now), now)
}

func (limiter *attemptLimiter) clear(key string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	delete(limiter.failures, key)
}

func (limiter *attemptLimiter) recentLocked(key string, now time.Time) []time.Time {
	values := limiter.failures[key]
	threshold := now.Add(-limiter.window)
	kept := values[:0]
	for _, value := range values {
		if value.After(threshold) {
			kept = append(kept, value)
		}
	}
	if len(kept) == 0 {
		delete(limiter.failures, key)
		return nil
	}
	limiter.failures[key] = kept
	return kept
}

func requestLimiterKey(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.IP())
	if key == "" {
		return "unknown"
	}
	return key
}

// loginLimiterKey scopes sign-in throttling to one client and one account.
func loginLimiterKey(c *fiber.Ctx, email string) string {
	return requestLimiterKey(c) + "|" + services.NormalizeAuthEmail(email)
}
