package webhookingress

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimiterCleanupInterval = 5 * time.Minute
	rateLimiterStaleAfter      = 10 * time.Minute
	secondsPerMinute           = 60.0
)

// sourceLimiter is a per-source-IP token bucket rate limiter. It sits
// ahead of signature verification so a misbehaving or replaying sender
// is rejected before paying HMAC verification's cost, bounding unbounded
// enqueue volume from a single source.
type sourceLimiter struct {
	mu          sync.Mutex
	clients     map[string]*limiterEntry
	ratePerMin  int
	burst       int
	cleanupTick time.Duration
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// newSourceLimiter builds a limiter allowing ratePerMin requests per
// minute per source IP, with burst headroom of burst requests.
func newSourceLimiter(ratePerMin, burst int) *sourceLimiter {
	return &sourceLimiter{
		clients:     make(map[string]*limiterEntry),
		ratePerMin:  ratePerMin,
		burst:       burst,
		cleanupTick: rateLimiterCleanupInterval,
	}
}

func (rl *sourceLimiter) allow(sourceIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupLocked()

	entry, ok := rl.clients[sourceIP]
	if !ok {
		ratePerSec := float64(rl.ratePerMin) / secondsPerMinute
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSec), rl.burst)}
		rl.clients[sourceIP] = entry
	}
	entry.lastAccess = time.Now()

	return entry.limiter.Allow()
}

func (rl *sourceLimiter) cleanupLocked() {
	staleThreshold := time.Now().Add(-rateLimiterStaleAfter)
	for ip, entry := range rl.clients {
		if entry.lastAccess.Before(staleThreshold) {
			delete(rl.clients, ip)
		}
	}
}

// sourceIP extracts the request's originating IP, preferring
// X-Forwarded-For's first hop when present (GitHub webhooks are
// typically delivered through a load balancer).
func sourceIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		firstIP := strings.TrimSpace(strings.Split(xff, ",")[0])
		if host, _, err := net.SplitHostPort(firstIP); err == nil {
			return host
		}
		return firstIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
