package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func tooManyRequests(c *gin.Context, retryIn time.Duration) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"status":     "error",
		"message":    "Too many requests. Slow down!",
		"retry_in_s": int(math.Ceil(retryIn.Seconds())),
	})
}

// RateLimiterMiddleware is a fixed window counter per client IP shared by
// every instance through redis. Redis errors let the request through.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn().Err(err).Msg("rate limiter skipped")
			c.Next()
			return
		}

		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("rate limiter expire failed, deleting key")
				rdb.Del(ctx, key)
				c.Next()
				return
			}
		}

		ttl, err := rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int64(limit)-count)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

		if count > int64(limit) {
			tooManyRequests(c, ttl)
			return
		}

		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per client IP in process memory.
type localLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func (l *localLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// LocalRateLimiterMiddleware allows limit requests per window and client IP
// without redis. Counters are per process.
func LocalRateLimiterMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	l := &localLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(max(limit, 1))),
		burst:    max(limit, 1),
		idle:     window,
	}

	return func(c *gin.Context) {
		now := time.Now()
		lim := l.get(c.ClientIP(), now)

		r := lim.ReserveN(now, 1)
		delay := r.DelayFrom(now)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int(lim.TokensAt(now)))))

		if delay > 0 {
			r.CancelAt(now)
			tooManyRequests(c, delay)
			return
		}

		c.Next()
	}
}
