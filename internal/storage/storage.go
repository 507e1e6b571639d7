// Package storage remembers which records were already published.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store tracks published record IDs.
type Store interface {
	Close() error
	SeenRecord(ctx context.Context, id string) (bool, error)
	MarkRecord(ctx context.Context, id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
	RedisAddr       string
	RedisKeyPrefix  string
}

const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
	TypeRedis = "redis"

	defaultRecordTTL       = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
	defaultRedisKeyPrefix  = "trendscout:seen:"
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if strings.TrimSpace(opts.RedisKeyPrefix) == "" {
		opts.RedisKeyPrefix = defaultRedisKeyPrefix
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                    { return nil }
func (noopStore) SeenRecord(context.Context, string) (bool, error) { return false, nil }
func (noopStore) MarkRecord(context.Context, string) error         { return nil }
