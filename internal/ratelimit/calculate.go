package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/roomledger/roomledger/internal/config"
	"go.uber.org/zap"
)

const keyCalculateBooking = "commission:calculate:%s"

// CalculateLimiter throttles commission calculation requests per booking.
// It is optional: without a Redis address every request is allowed, and a
// Redis failure fails open so the engine never stalls on the limiter.
type CalculateLimiter struct {
	bucket *TokenBucket
	holder *config.CommissionConfigHolder
	log    *zap.Logger
}

func NewCalculateLimiter(cfg config.Config, holder *config.CommissionConfigHolder, log *zap.Logger) *CalculateLimiter {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return &CalculateLimiter{
		bucket: NewTokenBucket(client),
		holder: holder,
		log:    log.Named("ratelimit"),
	}
}

func (l *CalculateLimiter) Allow(ctx context.Context, bookingID string) bool {
	if l == nil {
		return true
	}
	cfg := l.holder.Current()
	if cfg.CalculateRatePerSecond <= 0 || cfg.CalculateBurst <= 0 {
		return true
	}

	allowed, err := l.bucket.Allow(ctx,
		fmt.Sprintf(keyCalculateBooking, bookingID),
		cfg.CalculateRatePerSecond,
		cfg.CalculateBurst,
	)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return true
	}
	return allowed
}
