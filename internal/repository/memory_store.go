package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/nikolayk812/storefront/internal/port"
)

var ErrWriteRejected = errors.New("memory store rejects writes")

// MemoryStore keeps the encoded collection in memory so callers never share
// state with it. Writes can be switched off to simulate an unwritable medium.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	data     []byte
	readOnly bool
}

func NewMemory[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{}
}

var _ port.RecordStore[struct{}] = (*MemoryStore[struct{}])(nil)

func (s *MemoryStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		data, err := encodeRecords[T](nil)
		if err != nil {
			return nil, err
		}
		s.data = data
	}

	return decodeRecords[T](s.data)
}

func (s *MemoryStore[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrWriteRejected
	}
	s.data = data

	return nil
}

// SetReadOnly makes subsequent writes fail with ErrWriteRejected.
func (s *MemoryStore[T]) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = readOnly
}
