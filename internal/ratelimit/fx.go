package ratelimit

import (
	"github.com/ledgerline/invoicer/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when no redis address is configured; the
// limiter and locker degrade to no-ops in that case.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

var Module = fx.Module("rate.limit",
	fx.Provide(
		NewRedisClient,
		NewRequestLimiter,
		NewLocker,
	),
)
