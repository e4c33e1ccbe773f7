// Package cache stores revoked session token ids.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/comit-io/galaxyapi/internal/config"
)

var (
	revocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "galaxyapi_token_revocations_total",
		Help: "Total number of revoked session tokens",
	}, []string{"store"})
	revocationChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "galaxyapi_token_revocation_checks_total",
		Help: "Total number of revocation lookups by result",
	}, []string{"store", "result"})
	revocationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "galaxyapi_token_revocation_duration_seconds",
		Help:    "Redis revocation operation latency",
		Buckets: prometheus.DefBuckets,
	})
)

// RedisRevocations keeps revoked token ids in Redis with a TTL matching the
// token's remaining lifetime, so every API instance sees the same set.
type RedisRevocations struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevocations connects to Redis and verifies the connection.
func NewRedisRevocations(ctx context.Context, cfg config.RedisConfig, addr string) (*RedisRevocations, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisRevocationsWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisRevocationsWithClient wraps an existing client.
func NewRedisRevocationsWithClient(client *redis.Client, keyPrefix string) *RedisRevocations {
	return &RedisRevocations{client: client, keyPrefix: keyPrefix}
}

func (r *RedisRevocations) key(tokenID string) string {
	return r.keyPrefix + tokenID
}

// Revoke marks the token as revoked until it would have expired anyway.
// Tokens already past expiry need no entry.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	start := time.Now()
	defer func() { revocationLatency.Observe(time.Since(start).Seconds()) }()

	if err := r.client.Set(ctx, r.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	revocationsTotal.WithLabelValues("redis").Inc()
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	start := time.Now()
	defer func() { revocationLatency.Observe(time.Since(start).Seconds()) }()

	err := r.client.Get(ctx, r.key(tokenID)).Err()
	switch {
	case errors.Is(err, redis.Nil):
		revocationChecks.WithLabelValues("redis", "active").Inc()
		return false, nil
	case err != nil:
		revocationChecks.WithLabelValues("redis", "error").Inc()
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	revocationChecks.WithLabelValues("redis", "revoked").Inc()
	return true, nil
}

// Ping reports whether Redis answers.
func (r *RedisRevocations) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRevocations) Close() error {
	return r.client.Close()
}
