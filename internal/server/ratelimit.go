package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"cvtailor/internal/errors"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleEviction    = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (IP address or API key)
// and evicts buckets that have been idle for a while.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// NewRateLimiter allows requestsPerMin requests per minute per key with the
// given burst capacity.
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burstCapacity,
		now:     time.Now,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a request for key may proceed right now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = rl.now()
	limiter := client.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"enabled":         true,
		"active_limiters": len(rl.clients),
		"rate_per_minute": float64(rl.rate) * 60.0,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(limiterIdleEviction)
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops buckets unused for longer than maxIdle
func (rl *RateLimiter) evictIdle(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for key, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}

	if rl.logger != nil {
		rl.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(rl.clients))
	}
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// rateLimitMiddleware rejects requests over budget with 429 and counts the
// rejection in the rate-limit metric.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		key, limiterKind := s.rateLimitKey(r)
		if key == "" {
			next(w, r)
			return
		}

		if !s.RateLimiter.Allow(key) {
			s.om.RecordRateLimitHit(r.Context(), limiterKind)
			s.Logger.Info("Rate limit exceeded",
				"limiter", limiterKind,
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"request_id", requestID(r.Context()))
			w.Header().Set("Retry-After", "60")
			writeErrorResponse(w, "Rate limit exceeded", "", "Too many requests", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// rateLimitKey picks the bucket for r. A configured API key gets its own
// bucket when keyed limiting is on; any other key is charged to the client IP
// so made-up keys cannot mint fresh buckets ahead of authentication.
func (s *Server) rateLimitKey(r *http.Request) (string, string) {
	if s.RateLimit.ByAPIKey {
		if apiKey := extractAPIKey(r); apiKey != "" {
			if s.APIKeys[apiKey] {
				return "api:" + apiKey, "api_key"
			}
			return "ip:" + getClientIP(r), "ip"
		}
	}
	if s.RateLimit.ByIP {
		return "ip:" + getClientIP(r), "ip"
	}
	return "", ""
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for candidate := range strings.SplitSeq(xff, ",") {
			candidate = strings.TrimSpace(candidate)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
