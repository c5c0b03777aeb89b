package repository

import (
	"context"
	"fmt"

	"github.com/nikolayk812/storefront/internal/port"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("collections")

// BoltStore keeps each collection as one JSON value under its name in a
// shared bucket. Every write is a single bbolt transaction.
type BoltStore[T any] struct {
	db  *bolt.DB
	key []byte
}

func NewBolt[T any](db *bolt.DB, collection string) (*BoltStore[T], error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}

	return &BoltStore[T]{db: db, key: []byte(collection)}, nil
}

var _ port.RecordStore[struct{}] = (*BoltStore[struct{}])(nil)

func (s *BoltStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(boltBucket); b != nil {
			// the value is only valid inside the transaction
			data = append([]byte(nil), b.Get(s.key)...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db.View: %w", err)
	}

	if data == nil {
		if err := s.initialize(); err != nil {
			return nil, err
		}
		return []T{}, nil
	}

	return decodeRecords[T](data)
}

func (s *BoltStore[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return fmt.Errorf("tx.CreateBucketIfNotExists: %w", err)
		}
		return b.Put(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("db.Update: %w", err)
	}

	return nil
}

func (s *BoltStore[T]) initialize() error {
	empty, err := encodeRecords[T](nil)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return fmt.Errorf("tx.CreateBucketIfNotExists: %w", err)
		}
		if b.Get(s.key) != nil {
			return nil
		}
		return b.Put(s.key, empty)
	})
	if err != nil {
		return fmt.Errorf("init %s: %w", s.key, err)
	}

	return nil
}
