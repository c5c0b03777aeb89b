package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/nikolayk812/storefront/internal/port"
)

// FileStore keeps a collection as a JSON array in a single file. Writes go to
// a temporary file that is renamed over the target.
type FileStore[T any] struct {
	path string
}

func NewFile[T any](path string) (*FileStore[T], error) {
	if path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	return &FileStore[T]{path: path}, nil
}

var _ port.RecordStore[struct{}] = (*FileStore[struct{}])(nil)

func (s *FileStore[T]) Path() string {
	return s.path
}

func (s *FileStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.WriteAll(ctx, nil); err != nil {
			return nil, fmt.Errorf("init %s: %w", s.path, err)
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	records, err := decodeRecords[T](data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return records, nil
}

func (s *FileStore[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("renameio.WriteFile: %w", err)
	}

	return nil
}
