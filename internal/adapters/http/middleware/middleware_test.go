package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestRateLimiter_SustainedTrafficEarnsRefill verifies a client sending
// steadily faster than one request per interval still earns tokens back.
// PRE: one token per 50ms interval, requests every ~30ms.
// POST: after draining the bucket, later requests are allowed again.
func TestRateLimiter_SustainedTrafficEarnsRefill(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	if !rl.Allow("10.0.0.9") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.9") {
		t.Fatal("second immediate request should be denied")
	}

	allowed := 0
	for i := 0; i < 10; i++ {
		time.Sleep(30 * time.Millisecond)
		if rl.Allow("10.0.0.9") {
			allowed++
		}
	}
	// ~300ms at one token per 50ms: several requests must get through
	// even though no single gap spans a full interval boundary twice.
	if allowed < 2 {
		t.Errorf("allowed = %d of 10 sustained requests, want at least 2", allowed)
	}
}

// TestRateLimiter_RefillCapped verifies a long idle period refills at
// most one bucket.
// PRE: bucket drained, then an idle period of many intervals.
// POST: exactly rate requests are allowed afterwards.
func TestRateLimiter_RefillCapped(t *testing.T) {
	rl := NewRateLimiter(2, 20*time.Millisecond)

	for i := 0; i < 2; i++ {
		if !rl.Allow("10.0.0.9") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("10.0.0.9") {
		t.Fatal("drained bucket should deny")
	}

	time.Sleep(200 * time.Millisecond)

	allowed := 0
	for i := 0; i < 5; i++ {
		if rl.Allow("10.0.0.9") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed = %d after idle, want bucket capacity 2", allowed)
	}
}

// TestRateLimit_SharedBucketAcrossPorts verifies the middleware keys on
// the client IP, not the connection.
// PRE: limit of one request; two connections from one IP, one from another.
// POST: the second connection from the same IP is rejected; the other IP
// is not.
func TestRateLimit_SharedBucketAcrossPorts(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remoteAddr string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.9:1111"); code != http.StatusOK {
		t.Fatalf("first connection = %d, want 200", code)
	}
	if code := do("10.0.0.9:2222"); code != http.StatusTooManyRequests {
		t.Errorf("second connection from same IP = %d, want 429", code)
	}
	if code := do("10.0.0.8:3333"); code != http.StatusOK {
		t.Errorf("different IP = %d, want 200", code)
	}
}
