package port

import "context"

// RecordStore holds one ordered collection of records. WriteAll replaces the
// whole collection or nothing; callers serialize read-modify-write cycles.
type RecordStore[T any] interface {
	ReadAll(ctx context.Context) ([]T, error)
	WriteAll(ctx context.Context, records []T) error
}

type IDAllocator interface {
	NextID(existing []string) (string, error)
}
