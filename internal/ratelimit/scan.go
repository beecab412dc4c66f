package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
)

const (
	keyScanUser = "scan:user:%s"
	keyScanLock = "scan:lock:%s"

	// Covers the extractor timeout with headroom so a crashed request
	// cannot pin a user out for long.
	scanLockTTL = 90 * time.Second
)

// ScanLimiter throttles the vision-model endpoints per user and holds a
// short lock so each user has at most one extraction in flight.
type ScanLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewScanLimiter(cfg config.Config) (*ScanLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ScanRate <= 0 || limitCfg.ScanBurst <= 0 {
		return nil, errors.New("scan rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ScanLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.ScanRate,
		burst:   limitCfg.ScanBurst,
	}, nil
}

func (l *ScanLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ScanLimiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanUser, strings.TrimSpace(userID)), l.rate, l.burst)
}

func (l *ScanLimiter) TryLockUser(ctx context.Context, userID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyScanLock, strings.TrimSpace(userID)), scanLockTTL)
}

func (l *ScanLimiter) ReleaseUser(ctx context.Context, userID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyScanLock, strings.TrimSpace(userID)), token)
}
