// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window in-process rate limiter keyed by string.
// Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	cleanup  time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing `limit` hits per `duration` per key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the window for a key. Called after successful logins so a
// legitimate user is not penalized for earlier typos.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request, preferring
// X-Forwarded-For and X-Real-IP (set by the reverse proxy) over
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter pairs an IP window and an email window so neither a
// single IP spraying many accounts nor many IPs targeting one account
// slips through.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiter returns the default login limiter: 10 attempts per IP
// per minute, 5 attempts per email per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(10, time.Minute),
		emailLimiter: New(5, 5*time.Minute),
	}
}

// Check verifies if a login attempt should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if email != "" {
		key := strings.ToLower(strings.TrimSpace(email))
		if !ll.emailLimiter.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the email window after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		ll.emailLimiter.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
