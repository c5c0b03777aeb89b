package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/port"
)

// PostgresStore keeps one row per record, ordered by position. WriteAll
// deletes and reinserts the collection inside one transaction that holds an
// advisory lock on the collection name.
type PostgresStore[T any] struct {
	q          *db.Queries
	pool       *pgxpool.Pool
	collection string
}

func NewPostgres[T any](pool *pgxpool.Pool, collection string) (*PostgresStore[T], error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}

	return &PostgresStore[T]{
		q:          db.New(pool),
		pool:       pool,
		collection: collection,
	}, nil
}

func NewPostgresWithTx[T any](tx pgx.Tx, collection string) (*PostgresStore[T], error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}

	return &PostgresStore[T]{
		q:          db.New(tx),
		pool:       nil, // use provided transaction instead
		collection: collection,
	}, nil
}

var _ port.RecordStore[struct{}] = (*PostgresStore[struct{}])(nil)

// CheckPostgresSchema reports whether migrations/01_records.up.sql has been
// applied to the database behind pool. Stores never create tables themselves.
func CheckPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ready, err := db.New(pool).SchemaReady(ctx)
	if err != nil {
		return fmt.Errorf("q.SchemaReady: %w", err)
	}
	if !ready {
		return fmt.Errorf("records schema missing: apply migrations/01_records.up.sql")
	}
	return nil
}

func (s *PostgresStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := s.q.EnsureCollection(ctx, s.collection); err != nil {
		return nil, fmt.Errorf("q.EnsureCollection: %w", err)
	}

	docs, err := s.q.ListRecords(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("q.ListRecords: %w", err)
	}

	records, err := mapDocsToRecords[T](docs)
	if err != nil {
		return nil, fmt.Errorf("mapDocsToRecords: %w", err)
	}

	return records, nil
}

func (s *PostgresStore[T]) WriteAll(ctx context.Context, records []T) error {
	if len(records) > math.MaxInt32 {
		return fmt.Errorf("collection %s: too many records: %d", s.collection, len(records))
	}

	docs, err := mapRecordsToDocs(records)
	if err != nil {
		return fmt.Errorf("mapRecordsToDocs: %w", err)
	}

	_, err = withTx(ctx, s.pool, s.q, func(q *db.Queries) (struct{}, error) {
		if err := q.EnsureCollection(ctx, s.collection); err != nil {
			return struct{}{}, fmt.Errorf("q.EnsureCollection: %w", err)
		}

		if err := q.LockCollection(ctx, s.collection); err != nil {
			return struct{}{}, fmt.Errorf("q.LockCollection: %w", err)
		}

		if _, err := q.DeleteRecords(ctx, s.collection); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteRecords: %w", err)
		}

		for i, doc := range docs {
			err := q.InsertRecord(ctx, db.InsertRecordParams{
				Collection: s.collection,
				Position:   int32(i),
				Doc:        doc,
			})
			if err != nil {
				return struct{}{}, fmt.Errorf("q.InsertRecord[%d]: %w", i, err)
			}
		}

		return struct{}{}, nil
	})

	return err
}

func mapRecordsToDocs[T any](records []T) ([][]byte, error) {
	docs := make([][]byte, 0, len(records))

	for i, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("record[%d] json.Marshal: %w", i, err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func mapDocsToRecords[T any](docs [][]byte) ([]T, error) {
	records := make([]T, 0, len(docs))

	for i, doc := range docs {
		var record T
		if err := json.Unmarshal(doc, &record); err != nil {
			return nil, fmt.Errorf("doc[%d] json.Unmarshal: %w", i, err)
		}

		records = append(records, record)
	}

	return records, nil
}
