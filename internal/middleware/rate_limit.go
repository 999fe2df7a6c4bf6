package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	APIMaxRequests     = 100 // per minute per IP
	SearchMaxRequests  = 30  // per minute per IP
	PaymentMaxAttempts = 10  // per minute per user
	CartMaxAdds        = 20  // per minute per user

	rateWindow = 1 * time.Minute
)

// RateLimiter enforces sliding per-minute request caps on Redis counters.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

func (rl *RateLimiter) allow(c *gin.Context, key string, max int) bool {
	ctx := c.Request.Context()

	count, _ := rl.rdb.Get(ctx, key).Int()
	if count >= max {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many requests. Try again in a minute",
			"retry_after": 60,
		})
		c.Abort()
		return false
	}

	pipe := rl.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rateWindow)
	pipe.Exec(ctx)

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-count-1))
	return true
}

// API is the general per-IP cap applied to the whole /api surface.
func (rl *RateLimiter) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.allow(c, "api_requests:"+c.ClientIP(), APIMaxRequests) {
			c.Next()
		}
	}
}

// Search throttles catalog searches per IP.
func (rl *RateLimiter) Search() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.allow(c, "search_requests:"+c.ClientIP(), SearchMaxRequests) {
			c.Next()
		}
	}
}

// Payment throttles payment initiations per user; run after auth.
func (rl *RateLimiter) Payment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		if userID == "" {
			c.Next()
			return
		}
		if rl.allow(c, "payment_attempts:"+userID, PaymentMaxAttempts) {
			c.Next()
		}
	}
}

// CartAdd throttles cart additions per user or anonymous session.
func (rl *RateLimiter) CartAdd() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetString(CtxUserID)
		if owner == "" {
			owner = c.GetString(CtxCartSession)
		}
		if owner == "" {
			c.Next()
			return
		}
		if rl.allow(c, "cart_add:"+owner, CartMaxAdds) {
			c.Next()
		}
	}
}
