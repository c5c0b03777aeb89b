package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoSeqField       = "_seq"
	mongoIDField        = "_id"
	mongoMetaCollection = "_collections"
)

// MongoStore keeps one document per record with the record's own JSON field
// shape plus a _seq field that preserves order. WriteAll replaces the
// collection in a multi-document transaction, so the server must run as a
// replica set.
type MongoStore[T any] struct {
	client *mongo.Client
	coll   *mongo.Collection
	meta   *mongo.Collection
}

func NewMongo[T any](client *mongo.Client, database, collection string) (*MongoStore[T], error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if database == "" {
		return nil, fmt.Errorf("database is empty")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}

	mdb := client.Database(database)

	return &MongoStore[T]{
		client: client,
		coll:   mdb.Collection(collection),
		meta:   mdb.Collection(mongoMetaCollection),
	}, nil
}

var _ port.RecordStore[struct{}] = (*MongoStore[struct{}])(nil)

func (s *MongoStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	_, err := s.meta.UpdateOne(ctx,
		bson.D{{Key: mongoIDField, Value: s.coll.Name()}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: time.Now().UTC()}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("meta.UpdateOne: %w", err)
	}

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: mongoSeqField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("coll.Find: %w", err)
	}

	var docs []bson.D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cur.All: %w", err)
	}

	records := make([]T, 0, len(docs))
	for i, doc := range docs {
		record, err := mapDocumentToRecord[T](doc)
		if err != nil {
			return nil, fmt.Errorf("doc[%d]: %w", i, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *MongoStore[T]) WriteAll(ctx context.Context, records []T) error {
	docs := make([]any, 0, len(records))
	for i, record := range records {
		doc, err := mapRecordToDocument(record, i)
		if err != nil {
			return fmt.Errorf("record[%d]: %w", i, err)
		}
		docs = append(docs, doc)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("client.StartSession: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := s.coll.DeleteMany(sc, bson.D{}); err != nil {
			return nil, fmt.Errorf("coll.DeleteMany: %w", err)
		}

		if len(docs) == 0 {
			return nil, nil
		}

		if _, err := s.coll.InsertMany(sc, docs); err != nil {
			return nil, fmt.Errorf("coll.InsertMany: %w", err)
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("sess.WithTransaction: %w", err)
	}

	return nil
}

func mapRecordToDocument[T any](record T, seq int) (bson.D, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	var fields bson.D
	if err := bson.UnmarshalExtJSON(data, false, &fields); err != nil {
		return nil, fmt.Errorf("bson.UnmarshalExtJSON: %w", err)
	}

	return append(bson.D{{Key: mongoSeqField, Value: seq}}, fields...), nil
}

func mapDocumentToRecord[T any](doc bson.D) (T, error) {
	var record T

	fields := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == mongoIDField || e.Key == mongoSeqField {
			continue
		}
		fields = append(fields, e)
	}

	data, err := bson.MarshalExtJSON(fields, false, false)
	if err != nil {
		return record, fmt.Errorf("bson.MarshalExtJSON: %w", err)
	}

	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return record, nil
}
