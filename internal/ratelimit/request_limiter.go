package ratelimit

import (
	"context"
	"fmt"

	"github.com/ledgerline/invoicer/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyAPIRequest = "api:request:%s"

// RequestLimiter throttles API requests per caller. It is a no-op when
// redis is not configured.
type RequestLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewRequestLimiter(cfg config.Config, client *redis.Client) *RequestLimiter {
	if client == nil || cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return &RequestLimiter{enabled: false}
	}
	return &RequestLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimitRPS,
		burst:   cfg.RateLimitBurst,
	}
}

func (l *RequestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow checks the caller's bucket. Callers should fail open on error so a
// redis outage does not take the API down with it.
func (l *RequestLimiter) Allow(ctx context.Context, caller string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyAPIRequest, caller)
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
