// Package deliveries remembers which webhook deliveries were already applied so
// sender retries can be acknowledged without touching the registry again.
// The registry writes are idempotent on their own; the ledger only saves work.
package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/upb/tenant-access-gate/config"
	"go.uber.org/zap"
)

const defaultTTL = 24 * time.Hour

// redisClient is the subset of the redis client the ledger uses
type redisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Ledger records applied delivery ids in Redis. A nil *Ledger is valid and
// never reports a delivery as seen.
type Ledger struct {
	client redisClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewLedger connects to cfg.URL. It returns a nil ledger when no URL is configured.
func NewLedger(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Ledger, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("delivery ledger connected",
		zap.String("addr", opts.Addr),
		zap.Duration("ttl", cfg.TTL))

	return newLedger(client, cfg.KeyPrefix, cfg.TTL, logger), nil
}

func newLedger(client redisClient, prefix string, ttl time.Duration, logger *zap.Logger) *Ledger {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Ledger{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *Ledger) key(audience, deliveryID string) string {
	return l.prefix + audience + ":" + deliveryID
}

// Seen reports whether the delivery was already applied. Lookup failures
// report false so the event is applied again.
func (l *Ledger) Seen(ctx context.Context, audience, deliveryID string) bool {
	if l == nil || deliveryID == "" {
		return false
	}

	n, err := l.client.Exists(ctx, l.key(audience, deliveryID)).Result()
	if err != nil {
		l.logger.Warn("delivery ledger lookup failed",
			zap.String("delivery_id", deliveryID),
			zap.Error(err))
		return false
	}
	return n > 0
}

// Mark records the delivery as applied
func (l *Ledger) Mark(ctx context.Context, audience, deliveryID string) {
	if l == nil || deliveryID == "" {
		return
	}

	if err := l.client.SetNX(ctx, l.key(audience, deliveryID), time.Now().UTC().Unix(), l.ttl).Err(); err != nil {
		l.logger.Warn("delivery ledger write failed",
			zap.String("delivery_id", deliveryID),
			zap.Error(err))
	}
}

// Ping checks the redis connection
func (l *Ledger) Ping(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.client.Ping(ctx).Err()
}

// Close releases the redis connection
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
