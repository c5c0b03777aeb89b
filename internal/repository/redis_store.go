package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/storefront/internal/port"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps a collection as one JSON string value. A single SET
// replaces it atomically.
type RedisStore[T any] struct {
	client redis.UniversalClient
	key    string
}

func NewRedis[T any](client redis.UniversalClient, prefix, collection string) (*RedisStore[T], error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}

	key := collection
	if prefix != "" {
		key = prefix + ":" + collection
	}

	return &RedisStore[T]{client: client, key: key}, nil
}

var _ port.RecordStore[struct{}] = (*RedisStore[struct{}])(nil)

func (s *RedisStore[T]) Key() string {
	return s.key
}

func (s *RedisStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		empty, err := encodeRecords[T](nil)
		if err != nil {
			return nil, err
		}
		if err := s.client.SetNX(ctx, s.key, empty, 0).Err(); err != nil {
			return nil, fmt.Errorf("client.SetNX: %w", err)
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	return decodeRecords[T](data)
}

func (s *RedisStore[T]) WriteAll(ctx context.Context, records []T) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}
