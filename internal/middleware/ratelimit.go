// Package middleware provides HTTP middleware for the LanceCerto API.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lancecerto/lancecerto/internal/domain"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter tracks request counts per key with a sliding window.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		entries:     make(map[string]*rateLimitEntry),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists {
		rl.entries[key] = &rateLimitEntry{
			count:       1,
			windowStart: now,
		}
		return true
	}

	// Check if window has expired
	if now.Sub(entry.windowStart) > rl.window {
		entry.count = 1
		entry.windowStart = now
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}

	return false
}

// Reset clears the rate limit for a key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, key)
}

// TimeUntilReset returns how long until the rate limit resets for a key.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	elapsed := time.Since(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}

	return rl.window - elapsed
}

// cleanup periodically removes expired entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.entries {
			if now.Sub(entry.windowStart) > rl.window {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// KeyFunc derives the rate-limit bucket key from a request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc buckets requests by client IP.
func IPKeyFunc(r *http.Request) string {
	return getClientIP(r)
}

// UserIDKeyFunc buckets requests by the userId field of a JSON body, falling
// back to the client IP when the body has none. The body is restored so the
// handler can decode it again.
func UserIDKeyFunc(r *http.Request) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return getClientIP(r)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.UserID == "" {
		return getClientIP(r)
	}
	return "user:" + payload.UserID
}

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	keyFunc KeyFunc
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware bucketed by
// client IP.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		keyFunc: IPKeyFunc,
		logger:  logger,
	}
}

// WithKeyFunc replaces the bucket key derivation.
func (m *RateLimitMiddleware) WithKeyFunc(keyFunc KeyFunc) *RateLimitMiddleware {
	m.keyFunc = keyFunc
	return m
}

// Limit returns middleware that rate limits requests.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.keyFunc(r)

		if !m.limiter.Allow(key) {
			m.logger.Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(m.limiter.TimeUntilReset(key).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "Muitas requisições. Tente novamente em instantes.",
				"code":  domain.ClientCodeRateLimitExceeded,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2.
	// The first one is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	// X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
