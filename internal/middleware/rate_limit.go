package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/redis"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per caller in fixed windows stored in Redis.
// Callers are keyed by user id once authenticated, else by client IP.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	action string
	now    func() time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, action string) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		action: action,
		now:    time.Now,
	}
}

func (rl *RateLimiter) caller(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// Limit rejects callers over the limit with 429. A Redis failure lets the
// request through.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := rl.now()
		bucket := now.UnixNano() / int64(rl.window)
		key := redis.RateLimitKey(rl.caller(c), fmt.Sprintf("%s:%d", rl.action, bucket))

		count, err := rl.hit(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}

		remaining := rl.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(rl.limit) {
			reset := time.Unix(0, (bucket+1)*int64(rl.window)).Sub(now)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
			util.AbortWithCustomError(c, http.StatusTooManyRequests,
				util.ErrCodeRateLimit, "Rate limit exceeded. Please try again later.")
			return
		}
		c.Next()
	}
}

// hit increments the window counter. The expiry is refreshed in the same
// transaction so a counter never outlives its window.
func (rl *RateLimiter) hit(ctx context.Context, key string) (int64, error) {
	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit is the global per-minute limiter
func RateLimit(redisClient *redis.Client, limit int) gin.HandlerFunc {
	return NewRateLimiter(redisClient, limit, time.Minute, "general").Limit()
}

// AuthRateLimit guards code, register and login endpoints
func AuthRateLimit(redisClient *redis.Client, limit int) gin.HandlerFunc {
	return NewRateLimiter(redisClient, limit, time.Minute, "auth").Limit()
}
