package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(checkInBurst, inductionBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		CheckInRate:     rate.Limit(0.001), // effectively no refill during a test
		CheckInBurst:    checkInBurst,
		InductionRate:   rate.Limit(0.001),
		InductionBurst:  inductionBurst,
		CleanupInterval: time.Hour,
	}
}

func doCheckIn(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/checkin", nil)
	req.RemoteAddr = ip + ":54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCheckInMiddlewareAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3, 1))
	defer rl.Stop()
	handler := rl.CheckInMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if rec := doCheckIn(handler, "198.51.100.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestCheckInMiddlewareRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 1))
	defer rl.Stop()
	handler := rl.CheckInMiddleware()(okHandler())

	doCheckIn(handler, "198.51.100.1")
	doCheckIn(handler, "198.51.100.1")
	rec := doCheckIn(handler, "198.51.100.1")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestRateLimiterIsolatesIPs(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()
	handler := rl.CheckInMiddleware()(okHandler())

	if rec := doCheckIn(handler, "198.51.100.1"); rec.Code != http.StatusOK {
		t.Fatalf("first IP: status = %d, want 200", rec.Code)
	}
	if rec := doCheckIn(handler, "198.51.100.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first IP second request: status = %d, want 429", rec.Code)
	}
	// a different IP has its own budget
	if rec := doCheckIn(handler, "198.51.100.2"); rec.Code != http.StatusOK {
		t.Fatalf("second IP: status = %d, want 200", rec.Code)
	}

	if got := rl.CheckInLimiterCount(); got != 2 {
		t.Errorf("tracked limiters = %d, want 2", got)
	}
}

func TestInductionMiddlewareIndependentOfCheckIn(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()
	checkIn := rl.CheckInMiddleware()(okHandler())
	induction := rl.InductionMiddleware()(okHandler())

	// exhaust the check-in budget
	doCheckIn(checkIn, "198.51.100.1")
	if rec := doCheckIn(checkIn, "198.51.100.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("check-in: status = %d, want 429", rec.Code)
	}

	// induction still has its own budget for the same IP
	req := httptest.NewRequest(http.MethodPost, "/api/induction", nil)
	req.RemoteAddr = "198.51.100.1:54321"
	rec := httptest.NewRecorder()
	induction.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("induction: status = %d, want 200", rec.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/checkin", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.5")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q, want the first forwarded address", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/checkin", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP = %q, want 203.0.113.9", got)
	}
}

func TestCleanupDropsIdleEntries(t *testing.T) {
	cfg := testRateLimiterConfig(1, 1)
	cfg.CleanupInterval = time.Millisecond
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.CheckInMiddleware()(okHandler())
	doCheckIn(handler, "198.51.100.1")

	// direct cleanup with a back-dated entry instead of waiting
	rl.checkInMu.Lock()
	rl.checkInLimiters["198.51.100.1"].lastAccess = time.Now().Add(-time.Hour)
	rl.checkInMu.Unlock()

	rl.cleanup()

	if got := rl.CheckInLimiterCount(); got != 0 {
		t.Errorf("tracked limiters after cleanup = %d, want 0", got)
	}
}

func TestNewRateLimiterConfigPerMinute(t *testing.T) {
	cfg := NewRateLimiterConfig(30, 10)
	if cfg.CheckInBurst != 30 || cfg.InductionBurst != 10 {
		t.Errorf("bursts = %d/%d, want 30/10", cfg.CheckInBurst, cfg.InductionBurst)
	}
	if cfg.CheckInRate != rate.Limit(0.5) {
		t.Errorf("check-in rate = %v, want 0.5/s", cfg.CheckInRate)
	}
}
