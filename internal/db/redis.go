// internal/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cachePrefix   = "cache:"
	pendingPrefix = "pending:"
	// undelivered direct messages are dropped from the replay queue after this long
	pendingTTL = 7 * 24 * time.Hour
)

type RedisDB struct {
	Client *redis.Client

	log *zap.Logger
}

func NewRedisDB(redisURL string, log *zap.Logger) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("[Redis] ✅ Connected to Redis", zap.String("addr", opt.Addr))
	return &RedisDB{Client: client, log: log}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		_ = r.Client.Close()
		r.log.Info("[Redis] Connection closed")
	}
}

// ============================================
// Cache
// ============================================

func (r *RedisDB) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, cachePrefix+key, data, expiration).Err()
}

// GetCache decodes a cached value into dest. A miss returns redis.Nil.
func (r *RedisDB) GetCache(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisDB) DeleteCache(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = cachePrefix + k
	}
	return r.Client.Del(ctx, prefixed...).Err()
}

// ============================================
// Deferred direct-message delivery
// ============================================

// PushPending queues a message id for a user who is offline.
func (r *RedisDB) PushPending(ctx context.Context, userID, messageID string) error {
	key := pendingPrefix + userID
	pipe := r.Client.TxPipeline()
	pipe.RPush(ctx, key, messageID)
	pipe.Expire(ctx, key, pendingTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// DrainPending returns and clears the queued message ids for a user, oldest first.
func (r *RedisDB) DrainPending(ctx context.Context, userID string) ([]string, error) {
	key := pendingPrefix + userID
	pipe := r.Client.TxPipeline()
	ids := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return ids.Val(), nil
}
