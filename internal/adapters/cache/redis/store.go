package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const DefaultKeyPrefix = "subs:entitlement:"

// Store keeps cache entries as plain redis strings under a key prefix.
// Multi-key writes run in one MULTI/EXEC transaction.
type Store struct {
	rdb   redis.UniversalClient
	keyNS string
	ttl   time.Duration
}

var _ ports.KeyValueStore = (*Store)(nil)

// NewStore wraps rdb. A zero ttl keeps entries until they are overwritten.
func NewStore(rdb redis.UniversalClient, keyPrefix string, ttl time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

// NewClient parses a redis:// URL into a client.
func NewClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *Store) key(name string) string { return s.keyNS + name }

func (s *Store) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, s.key(key))
	}

	raw, err := s.rdb.MGet(ctx, namespaced...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	values := make(map[string]string, len(keys))
	for i, value := range raw {
		str, ok := value.(string)
		if !ok {
			continue
		}
		values[keys[i]] = str
	}

	return values, nil
}

func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, s.key(key), value, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, s.key(key))
	}

	if err := s.rdb.Del(ctx, namespaced...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
