package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"toilet_finder/internal/metrics"
)

// RateLimiter implements per-IP rate limiting with periodic cleanup
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	interval  time.Duration
	stopClean chan struct{}
	stopOnce  sync.Once
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows reqsPerWindow requests per IP in each window, refilled
// evenly across it. It returns nil, meaning no limit, when reqsPerWindow is
// not positive.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	if reqsPerWindow <= 0 {
		return nil
	}
	interval := window / time.Duration(reqsPerWindow)
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(interval),
		burst:     reqsPerWindow,
		interval:  interval,
		stopClean: make(chan struct{}),
	}
}

// RetryAfter is how long a refused client waits for its next token, in whole
// seconds and never less than one.
func (rl *RateLimiter) RetryAfter() int {
	secs := int(math.Ceil(rl.interval.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// StartCleanup drops limiters idle for more than an hour, every interval,
// until Stop is called.
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	if rl == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup(time.Now().Add(-time.Hour))
			case <-rl.stopClean:
				return
			}
		}
	}()
}

func (rl *RateLimiter) cleanup(threshold time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stopClean) })
}

// RateLimit rejects requests over the limit with 429. A nil limiter lets
// everything through.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		metrics.APIRateLimitHits.WithLabelValues(c.FullPath()).Inc()
		c.Header("Retry-After", strconv.Itoa(rl.RetryAfter()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests"})
	}
}
