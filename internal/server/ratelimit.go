package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"courierhub/internal/commons"
	"courierhub/internal/dto"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket each.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
	now      func() time.Time
}

func NewRateLimiter(perSecond float64, burst int, logger *zap.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if rl.allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		traceID := uuid.New().String()
		logger := rl.logger.With(zap.String("traceId", traceID))
		logger.Warn("rate limit exceeded", zap.String("clientIp", key), zap.String("path", r.URL.Path))

		retryAfter := 1
		if rl.rate > 0 {
			retryAfter = int(1/float64(rl.rate)) + 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		commons.WriteJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{
			TraceID:   traceID,
			Status:    http.StatusTooManyRequests,
			Message:   "too many requests, try again later",
			Code:      "RATE_LIMITED",
			Timestamp: time.Now().UTC(),
		}, logger)
	})
}

// Cleanup forgets clients not seen for idle and returns how many were removed.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// ScheduleCleanup registers the idle-client sweep on c.
func ScheduleCleanup(c *cron.Cron, schedule string, rl *RateLimiter, idle time.Duration) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		if n := rl.Cleanup(idle); n > 0 {
			rl.logger.Debug("rate limiter clients removed", zap.Int("count", n))
		}
	})
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr when
// the service runs behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
