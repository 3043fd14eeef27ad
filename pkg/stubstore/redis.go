package stubstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// DefaultRedisPrefix is the key prefix used when none is given.
const DefaultRedisPrefix = "stubrouter:"

// RedisStorage keeps each target in a hash of path to JSON stub. A sorted
// set scored by a per-target sequence remembers first-save order.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage creates a RedisStorage on client. An empty prefix means
// DefaultRedisPrefix.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) dataKey(target string) string  { return s.prefix + "stubs:" + target }
func (s *RedisStorage) orderKey(target string) string { return s.prefix + "order:" + target }
func (s *RedisStorage) seqKey(target string) string   { return s.prefix + "seq:" + target }

// List returns target's stubs in first-save order.
func (s *RedisStorage) List(ctx context.Context, target string) (stub.Set, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	paths, err := s.client.ZRange(ctx, s.orderKey(target), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	set := stub.Set{}
	if len(paths) == 0 {
		return set, nil
	}

	vals, err := s.client.HMGet(ctx, s.dataKey(target), paths...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var st stub.Stub
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode stub %q of %q: %w", paths[i], target, err)
		}
		set = append(set, stub.Record{Path: paths[i], Stub: st})
	}
	return set, nil
}

// Get returns one stub.
func (s *RedisStorage) Get(ctx context.Context, target, path string) (stub.Stub, error) {
	if err := checkTarget(target); err != nil {
		return stub.Stub{}, err
	}
	raw, err := s.client.HGet(ctx, s.dataKey(target), path).Result()
	if errors.Is(err, redis.Nil) {
		return stub.Stub{}, ErrNotFound
	}
	if err != nil {
		return stub.Stub{}, err
	}
	var st stub.Stub
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return stub.Stub{}, fmt.Errorf("decode stub %q of %q: %w", path, target, err)
	}
	return st, nil
}

// Save creates or replaces a stub. An update keeps the original position.
func (s *RedisStorage) Save(ctx context.Context, target string, r stub.Record) error {
	if err := checkRecord(target, r); err != nil {
		return err
	}
	val, err := json.Marshal(r.Stub)
	if err != nil {
		return err
	}

	seq, err := s.client.Incr(ctx, s.seqKey(target)).Result()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.dataKey(target), r.Path, val)
		p.ZAddNX(ctx, s.orderKey(target), redis.Z{Score: float64(seq), Member: r.Path})
		return nil
	})
	return err
}

// Remove deletes a stub.
func (s *RedisStorage) Remove(ctx context.Context, target, path string) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	n, err := s.client.HDel(ctx, s.dataKey(target), path).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.client.ZRem(ctx, s.orderKey(target), path).Err()
}

// Close closes the Redis client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
