package threadcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/recipebook/internal/commenttree"
)

const (
	redisPrefix = "threads:"

	// updateAttempts bounds optimistic retries when another instance
	// writes the same thread between WATCH and EXEC.
	updateAttempts = 3
)

// RedisStore shares cached threads between instances of the web tier.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(recipeID string) string { return redisPrefix + recipeID }

func (s *RedisStore) Get(ctx context.Context, recipeID string) (commenttree.Forest, bool, error) {
	raw, err := s.client.Get(ctx, key(recipeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get thread: %w", err)
	}
	var f commenttree.Forest
	if err := json.Unmarshal(raw, &f); err != nil {
		// A corrupt entry is a miss; drop it so the next read refills it.
		_ = s.client.Del(ctx, key(recipeID)).Err()
		return nil, false, nil
	}
	if f == nil {
		f = commenttree.Forest{}
	}
	return f, true, nil
}

func (s *RedisStore) Set(ctx context.Context, recipeID string, f commenttree.Forest) error {
	if f == nil {
		f = commenttree.Forest{}
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal thread: %w", err)
	}
	if err := s.client.Set(ctx, key(recipeID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set thread: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, recipeID string) error {
	if err := s.client.Del(ctx, key(recipeID)).Err(); err != nil {
		return fmt.Errorf("invalidate thread: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("invalidate threads: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan threads: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("invalidate threads: %w", err)
		}
	}
	return nil
}

// Update runs mutate inside WATCH/MULTI so a write by another instance
// between the read and the write aborts and retries instead of being lost.
func (s *RedisStore) Update(ctx context.Context, recipeID string, mutate Mutation) (cached, applied bool, err error) {
	k := key(recipeID)
	txf := func(tx *redis.Tx) error {
		cached, applied = false, false
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get thread: %w", err)
		}

		var f commenttree.Forest
		if json.Unmarshal(raw, &f) != nil {
			_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, k)
				return nil
			})
			return err
		}
		if f == nil {
			f = commenttree.Forest{}
		}

		cached = true
		next, ok := mutate(f)
		if !ok {
			_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, k)
				return nil
			})
			return err
		}
		if next == nil {
			next = commenttree.Forest{}
		}
		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal thread: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, out, s.ttl)
			return nil
		})
		if err == nil {
			applied = true
		}
		return err
	}

	for attempt := 0; attempt < updateAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, k)
		if !errors.Is(err, redis.TxFailedErr) {
			if err != nil {
				return cached, false, err
			}
			return cached, applied, nil
		}
	}
	if err := s.client.Del(ctx, k).Err(); err != nil {
		return false, false, fmt.Errorf("drop contended thread: %w", err)
	}
	return false, false, ErrConflict
}

func (s *RedisStore) Shared() bool { return true }

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
