package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the per-IP rate limits for the public
// endpoints. Check-in and induction are limited independently because a
// crew sharing a site gateway produces very different traffic shapes on
// the two forms.
type RateLimiterConfig struct {
	CheckInRate     rate.Limit // check-in submissions per second per IP
	CheckInBurst    int
	InductionRate   rate.Limit // induction submissions per second per IP
	InductionBurst  int
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig allows 30 check-ins and 10 inductions per
// minute per IP.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		CheckInRate:     rate.Limit(30.0 / 60.0),
		CheckInBurst:    30,
		InductionRate:   rate.Limit(10.0 / 60.0),
		InductionBurst:  10,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiterConfig derives a config from per-minute limits.
func NewRateLimiterConfig(checkInPerMinute, inductionPerMinute int) RateLimiterConfig {
	cfg := DefaultRateLimiterConfig()
	if checkInPerMinute > 0 {
		cfg.CheckInRate = rate.Limit(float64(checkInPerMinute) / 60.0)
		cfg.CheckInBurst = checkInPerMinute
	}
	if inductionPerMinute > 0 {
		cfg.InductionRate = rate.Limit(float64(inductionPerMinute) / 60.0)
		cfg.InductionBurst = inductionPerMinute
	}
	return cfg
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter manages per-IP limiters for the public endpoints. The
// public forms are anonymous, so the client IP is the only available key.
type RateLimiter struct {
	config RateLimiterConfig

	checkInMu       sync.RWMutex
	checkInLimiters map[string]*ipLimiter

	inductionMu       sync.RWMutex
	inductionLimiters map[string]*ipLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts the background cleanup
// of idle entries.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:            config,
		checkInLimiters:   make(map[string]*ipLimiter),
		inductionLimiters: make(map[string]*ipLimiter),
		stopCh:            make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// CheckInMiddleware rate-limits the public check-in endpoint per IP.
func (rl *RateLimiter) CheckInMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreateCheckInLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.CheckInRate)
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("limit_type", "checkin"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// InductionMiddleware rate-limits the public induction endpoint per IP.
func (rl *RateLimiter) InductionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreateInductionLimiter(ip)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.InductionRate)
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("limit_type", "induction"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CheckInLimiterCount returns the number of tracked check-in limiter
// entries. Tests and metrics only.
func (rl *RateLimiter) CheckInLimiterCount() int {
	rl.checkInMu.RLock()
	defer rl.checkInMu.RUnlock()
	return len(rl.checkInLimiters)
}

// InductionLimiterCount returns the number of tracked induction limiter
// entries. Tests and metrics only.
func (rl *RateLimiter) InductionLimiterCount() int {
	rl.inductionMu.RLock()
	defer rl.inductionMu.RUnlock()
	return len(rl.inductionLimiters)
}

func (rl *RateLimiter) getOrCreateCheckInLimiter(ip string) *rate.Limiter {
	rl.checkInMu.RLock()
	il, exists := rl.checkInLimiters[ip]
	rl.checkInMu.RUnlock()

	if exists {
		rl.checkInMu.Lock()
		il.lastAccess = time.Now()
		rl.checkInMu.Unlock()
		return il.limiter
	}

	rl.checkInMu.Lock()
	defer rl.checkInMu.Unlock()

	// double-check under the write lock
	if il, exists := rl.checkInLimiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(rl.config.CheckInRate, rl.config.CheckInBurst)
	rl.checkInLimiters[ip] = &ipLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

func (rl *RateLimiter) getOrCreateInductionLimiter(ip string) *rate.Limiter {
	rl.inductionMu.RLock()
	il, exists := rl.inductionLimiters[ip]
	rl.inductionMu.RUnlock()

	if exists {
		rl.inductionMu.Lock()
		il.lastAccess = time.Now()
		rl.inductionMu.Unlock()
		return il.limiter
	}

	rl.inductionMu.Lock()
	defer rl.inductionMu.Unlock()

	// double-check under the write lock
	if il, exists := rl.inductionLimiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(rl.config.InductionRate, rl.config.InductionBurst)
	rl.inductionLimiters[ip] = &ipLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops entries idle for more than twice the cleanup interval.
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.checkInMu.Lock()
	for ip, il := range rl.checkInLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.checkInLimiters, ip)
		}
	}
	rl.checkInMu.Unlock()

	rl.inductionMu.Lock()
	for ip, il := range rl.inductionLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.inductionLimiters, ip)
		}
	}
	rl.inductionMu.Unlock()
}

// clientIP extracts the caller's IP, preferring the first entry of
// X-Forwarded-For when the app runs behind the site reverse proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse writes a 429 with a Retry-After estimate of one
// token's refill time.
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
