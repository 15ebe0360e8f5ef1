package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/server/respond"
)

// TaskRateLimitGroup covers the task enqueue endpoints.
const TaskRateLimitGroup = "TASKS"

// limiterIdleTTL is how long an unused client bucket is kept.
const limiterIdleTTL = 10 * time.Minute

// RateLimitRule allows Burst requests at once, refilled at Rate per second.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

type RateLimitConfig struct {
	Rules map[string]RateLimitRule
	// GroupFor picks the rule for a request; "" lets the request through.
	GroupFor func(*gin.Context) string
	Limiter  *RateLimiter
}

// RateLimiter holds one token bucket per client and group.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
	swept   time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{clients: make(map[string]*clientLimiter), now: now}
}

func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	return func(c *gin.Context) {
		var group string
		if cfg.GroupFor != nil {
			group = strings.TrimSpace(cfg.GroupFor(c))
		}
		rule, ok := cfg.Rules[group]
		if group == "" || !ok {
			c.Next()
			return
		}
		allowed, wait := cfg.Limiter.Allow(c.ClientIP()+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		metrics.IncThrottled(group)
		waitMs := max(wait.Milliseconds(), 1)
		c.Header("Retry-After", strconv.FormatInt((waitMs+999)/1000, 10))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"group":        group,
			"retryAfterMs": waitMs,
		})
	}
}

// TaskGroupFor puts POSTs under /tasks in TaskRateLimitGroup.
func TaskGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.Contains(c.FullPath(), "/tasks/") {
		return TaskRateLimitGroup
	}
	return ""
}

// Allow takes a token for key. When none is left it reports how long until one is.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	lim := l.limiter(key, rule, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (l *RateLimiter) limiter(key string, rule RateLimitRule, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > limiterIdleTTL {
		for k, cl := range l.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.lim
}
