package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements a Store on Redis keys that expire after the record TTL.
type redisStore struct {
	client    *redis.Client
	keyPrefix string
	recordTTL time.Duration
}

// openRedis accepts either a redis:// URL or a bare host:port address.
func openRedis(opts Options) (Store, error) {
	addr := strings.TrimSpace(opts.RedisAddr)
	redisOpts, err := redis.ParseURL(addr)
	if err != nil {
		redisOpts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisStore{
		client:    client,
		keyPrefix: opts.RedisKeyPrefix,
		recordTTL: opts.RecordTTL,
	}, nil
}

func (r *redisStore) key(id string) string { return r.keyPrefix + id }

// Close closes the redis client.
func (r *redisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// SeenRecord reports whether the record key still exists.
func (r *redisStore) SeenRecord(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkRecord sets the record key with the configured TTL.
func (r *redisStore) MarkRecord(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, r.key(id), time.Now().UTC().Format(time.RFC3339), r.recordTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
