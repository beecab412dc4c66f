package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
)

func TestNewScanLimiterDisabled(t *testing.T) {
	limiter, err := NewScanLimiter(config.Config{})
	require.NoError(t, err)
	require.Nil(t, limiter)
	require.False(t, limiter.Enabled())
}

func TestNewScanLimiterRequiresRedisAddr(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.ScanRate = 0.2
	cfg.RateLimit.ScanBurst = 3

	_, err := NewScanLimiter(cfg)
	require.Error(t, err)
}

func TestNewScanLimiterRequiresPositiveRate(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RedisAddr = "localhost:6379"
	cfg.RateLimit.ScanBurst = 3

	_, err := NewScanLimiter(cfg)
	require.Error(t, err)
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	var limiter *ScanLimiter

	allowed, err := limiter.AllowUser(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, allowed)

	token, locked, err := limiter.TryLockUser(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, locked)
	require.Empty(t, token)

	require.NoError(t, limiter.ReleaseUser(context.Background(), "42", token))
}

func TestBucketTTLCoversRefill(t *testing.T) {
	ttl := bucketTTL(0.2, 3)
	// 3 tokens at 0.2/s take 15s to refill; doubled and floored at 1m.
	require.GreaterOrEqual(t, ttl.Seconds(), 30.0)
}
