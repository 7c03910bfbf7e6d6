package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/rastro/internal/config"
)

const (
	keyBidBidder = "bid:place:bidder:%s"
	keyBidLock   = "bid:place:lock:%s:%s"
)

// BidLimiter throttles bid placement per bidder. A nil limiter allows
// everything, so the bid path works without redis configured.
type BidLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewBidLimiter(cfg config.Config) (*BidLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.BidRate <= 0 || limitCfg.BidBurst <= 0 {
		return nil, errors.New("bid rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &BidLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.BidRate,
		burst:   limitCfg.BidBurst,
		lockTTL: limitCfg.LockTTL,
	}, nil
}

func (l *BidLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *BidLimiter) AllowBidder(ctx context.Context, bidderID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyBidBidder, strings.TrimSpace(bidderID)), l.rate, l.burst)
}

func (l *BidLimiter) TryLockProduct(ctx context.Context, bidderID, productID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyBidLock, strings.TrimSpace(bidderID), strings.TrimSpace(productID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *BidLimiter) ReleaseProduct(ctx context.Context, bidderID, productID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyBidLock, strings.TrimSpace(bidderID), strings.TrimSpace(productID))
	return l.locker.Release(ctx, key, token)
}
