package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/pkg/config"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
	"github.com/sitetrace/cde-api/pkg/response"
)

// PortalRateLimit throttles portal routes with a fixed window counter
// keyed by client IP. Redis being unreachable fails open.
func PortalRateLimit(client *redis.Client, cfg config.PortalConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !cfg.RateLimitedOn || client == nil || cfg.RateLimit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:portal:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, cfg.RateWindow).Err(); err != nil {
				logger.Warn("rate limit expiry failed", zap.Error(err))
			}
		}
		if count > int64(cfg.RateLimit) {
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
