package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luna-ai/luna/pkg/errkind"
)

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client", clientKey(r)))
	})
}

// clientLimiter tracks one token bucket per client IP. Idle entries are
// evicted so the map does not grow without bound.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	lastScan time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*clientEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
	}
}

func (cl *clientLimiter) allow(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	if now.Sub(cl.lastScan) > cl.idleTTL {
		for k, e := range cl.clients {
			if now.Sub(e.lastSeen) > cl.idleTTL {
				delete(cl.clients, k)
			}
		}
		cl.lastScan = now
	}

	e, ok := cl.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

func withRateLimit(next http.Handler, rps float64, burst int, logger *zap.Logger) http.Handler {
	if rps <= 0 {
		return next
	}
	cl := newClientLimiter(rps, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !cl.allow(key) {
			logger.Warn("rate limit exceeded", zap.String("client", key))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
				Code:    errkind.CodeRateLimited,
				Message: "too many requests, slow down",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for limiting and logging. Cloud Run sits
// behind a proxy, so the forwarded header wins over the socket address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
