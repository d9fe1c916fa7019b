package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/livebet/internal/pkg/config"
	"github.com/Vodeneev/livebet/internal/pkg/models"
)

const (
	snapshotTTL      = 10 * time.Minute
	recentSignalsKey = "live:signals:recent"
	recentSignalsCap = 100
)

var _ SignalSink = (*RedisCache)(nil)

// RedisCache shares the latest per-match snapshot and the recent signal list
// with external readers (the dashboard process) without giving them access
// to the in-process store.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// StoreSnapshot publishes the latest snapshot of a match under a TTL'd key,
// so stale matches expire on their own.
func (r *RedisCache) StoreSnapshot(ctx context.Context, snap *models.MatchSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	key := fmt.Sprintf("live:match:%s", snap.MatchID)
	return r.client.Set(ctx, key, data, snapshotTTL).Err()
}

// SaveSignal prepends the signal to the shared recent list, trimmed to cap.
func (r *RedisCache) SaveSignal(ctx context.Context, signal *models.Signal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, recentSignalsKey, data)
	pipe.LTrim(ctx, recentSignalsKey, 0, recentSignalsCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
