package restapi

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"trainmapper.org/internal/metrics"
	"trainmapper.org/internal/models"
)

// RateLimitMiddleware provides per-client rate limiting, keyed by the
// remote IP of the connection.
type RateLimitMiddleware struct {
	limiters       map[string]*rate.Limiter
	mu             sync.RWMutex
	rateLimit      rate.Limit
	burstSize      int
	trustedProxies []netip.Prefix
	cleanupTick    *time.Ticker
	done           chan struct{}
	stopOnce       sync.Once
	metrics        *metrics.Collector
}

// NewRateLimitMiddleware creates a new rate limiting middleware allowing
// ratePerSecond requests per interval for each client, with bursts of the
// same size. A ratePerSecond of zero or less disables limiting and returns
// nil, whose Handler passes requests through.
//
// X-Forwarded-For is only consulted for requests whose remote address falls
// in trustedProxies (IPs or CIDR ranges). Call Stop to release the cleanup
// goroutine.
func NewRateLimitMiddleware(ratePerSecond int, interval time.Duration, trustedProxies []string, collector *metrics.Collector) *RateLimitMiddleware {
	if ratePerSecond <= 0 {
		return nil
	}

	middleware := newRateLimiter(ratePerSecond, interval, collector)
	middleware.trustedProxies = parseTrustedProxies(trustedProxies)
	go middleware.cleanup()

	return middleware
}

func newRateLimiter(ratePerSecond int, interval time.Duration, collector *metrics.Collector) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiters:    make(map[string]*rate.Limiter),
		rateLimit:   rate.Every(interval / time.Duration(ratePerSecond)),
		burstSize:   ratePerSecond,
		cleanupTick: time.NewTicker(5 * time.Minute),
		done:        make(chan struct{}),
		metrics:     collector,
	}
}

// parseTrustedProxies skips entries that are neither an IP nor a CIDR range;
// the configuration layer rejects those before they get here.
func parseTrustedProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// getLimiter gets or creates a rate limiter for the given client
func (rl *RateLimitMiddleware) getLimiter(client string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[client]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := rl.limiters[client]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rateLimit, rl.burstSize)
	rl.limiters[client] = limiter

	return limiter
}

func (rl *RateLimitMiddleware) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientKey identifies the caller by the remote IP. When that IP is a
// trusted proxy, X-Forwarded-For is walked from the right and the first hop
// that is not itself a trusted proxy is used instead.
func (rl *RateLimitMiddleware) clientKey(r *http.Request) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !rl.isTrusted(remote) {
		return remote
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.isTrusted(hop) {
			return hop
		}
	}
	return remote
}

// Handler wraps next with the limiter. A nil middleware returns next as is.
func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.getLimiter(rl.clientKey(r))

		if !limiter.Allow() {
			rl.metrics.RateLimitedInc()
			rl.sendRateLimitExceeded(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sendRateLimitExceeded sends a 429 Too Many Requests response
func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	retryAfter := int(math.Ceil(1 / float64(rl.rateLimit)))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: "Rate limit exceeded. Please try again later.",
	})
}

// cleanup periodically drops the limiters of idle clients.
func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeIdle()
		case <-rl.done:
			return
		}
	}
}

// removeIdle drops limiters that have refilled completely.
func (rl *RateLimitMiddleware) removeIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burstSize) {
			delete(rl.limiters, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once and on
// a nil middleware.
func (rl *RateLimitMiddleware) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		rl.cleanupTick.Stop()
		close(rl.done)
	})
}
