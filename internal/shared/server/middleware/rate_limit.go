package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"callcoach-backend/internal/shared/telemetry"
)

const (
	defaultRateLimitGroup = "DEFAULT"

	maxBuckets    = 10000
	bucketIdleTTL = 10 * time.Minute

	defaultRateLimitedMessage = "Too many requests. Please try again in a minute."
)

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// PerMinute builds a rule allowing perMinute requests per minute with the given burst.
// A non-positive perMinute disables limiting.
func PerMinute(perMinute, burst int) RateLimitRule {
	if perMinute <= 0 {
		return RateLimitRule{}
	}
	if burst <= 0 {
		burst = 1
	}
	return RateLimitRule{Rate: float64(perMinute) / 60.0, Burst: burst}
}

// RateLimitConfig selects a rule per request group. Requests whose group has
// no rule pass through. Message is the "error" text of a rejection.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
	Message      string
}

// RateLimiter holds token buckets in memory. Buckets idle past bucketIdleTTL
// are pruned once maxBuckets is reached.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter returns an in-memory limiter keyed by client IP and group.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// RateLimit rejects requests over their group's rule with 429 and Retry-After.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	if cfg.Message == "" {
		cfg.Message = defaultRateLimitedMessage
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.ClientIP()) + "|" + group
		allowed, retryAfter := cfg.Limiter.Allow(key, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs, retryAfterSeconds := retryAfterValues(retryAfter)
		telemetry.Warn("http.rate_limited", map[string]any{
			"request_id":     RequestIDFromContext(c),
			"group":          group,
			"route":          c.FullPath(),
			"retry_after_ms": retryAfterMs,
		})
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":        cfg.Message,
			"retryAfterMs": retryAfterMs,
		})
	}
}

// retryAfterValues rounds a wait up to whole milliseconds and whole seconds.
// An unknown wait is reported as one second.
func retryAfterValues(wait time.Duration) (ms, seconds int) {
	ms = int(math.Ceil(float64(wait) / float64(time.Millisecond)))
	if ms <= 0 {
		ms = 1000
	}
	return ms, int(math.Ceil(float64(ms) / 1000.0))
}

// Allow takes one token from key's bucket, reporting how long to wait when
// the bucket is empty.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			l.pruneLocked(now)
		}
		bucket = &rateBucket{
			tokens: float64(rule.Burst),
			last:   now,
		}
		l.buckets[key] = bucket
	}
	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens -= 1
		return true, 0
	}
	needed := 1 - bucket.tokens
	waitSec := needed / rule.Rate
	if waitSec < 0 {
		waitSec = 0
	}
	retryAfter := time.Duration(math.Ceil(waitSec*1000.0)) * time.Millisecond
	return false, retryAfter
}

// pruneLocked drops buckets idle long enough to have refilled. l.mu must be held.
func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
