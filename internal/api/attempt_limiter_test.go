package api

import (
	"testing"
	"time"
)

func TestAttemptLimiterBlocksUntilOldestFailureLeavesWindow(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(2, time.Hour)
	key := "127.0.0.1|client@edjs.ma"
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	limiter.recordFailure(key, now.Add(-2*time.Hour))
	if wait := limiter.retryAfter(key, now); wait != 0 {
		t.Fatalf("expected expired failure to be ignored, got wait %s", wait)
	}

	limiter.recordFailure(key, now.Add(-40*time.Minute))
	limiter.recordFailure(key, now.Add(-10*time.Minute))
	if wait := limiter.retryAfter(key, now); wait != 20*time.Minute {
		t.Fatalf("expected 20m wait, got %s", wait)
	}
	if wait := limiter.retryAfter(key, now.Add(21*time.Minute)); wait != 0 {
		t.Fatalf("expected key to unblock once a failure expires, got %s", wait)
	}

	limiter.clear(key)
	if wait := limiter.retryAfter(key, now); wait != 0 {
		t.Fatalf("expected no wait after clear, got %s", wait)
	}
}

func TestAttemptLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(1, time.Minute)
	now := time.Now().UTC()

	limiter.recordFailure("10.0.0.1|a@edjs.ma", now)
	if limiter.retryAfter("10.0.0.1|a@edjs.ma", now) == 0 {
		t.Fatal("expected first key to be blocked")
	}
	if limiter.retryAfter("10.0.0.1|b@edjs.ma", now) != 0 {
		t.Fatal("expected other account to stay allowed")
	}
}
