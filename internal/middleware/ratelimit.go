package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (cl *clientLimiter) allow(addr string, now time.Time) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	v, ok := cl.visitors[addr]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.visitors[addr] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (cl *clientLimiter) evict(now time.Time, idle time.Duration) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for addr, v := range cl.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(cl.visitors, addr)
		}
	}
}

func (cl *clientLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(visitorTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cl.evict(now, visitorTTL)
		}
	}
}

// retryAfter is the whole number of seconds until one token refills.
func (cl *clientLimiter) retryAfter() string {
	if cl.limit <= 0 {
		return "60"
	}
	secs := math.Ceil(1 / float64(cl.limit))
	return strconv.Itoa(int(max(1, secs)))
}

// RateLimit limits requests per client address. It guards the credential
// endpoints, so rejected attempts are logged with the request id.
// Idle clients are forgotten until ctx is cancelled.
func RateLimit(ctx context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	limiter := newClientLimiter(rps, burst)
	go limiter.sweep(ctx)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)

			if !limiter.allow(addr, time.Now()) {
				slog.Warn("credential attempt rate limited",
					"request_id", RequestIDFromContext(r.Context()),
					"client", addr,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", limiter.retryAfter())
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
