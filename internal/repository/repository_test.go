package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/01_records.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

func startMongo(ctx context.Context) (*mongodb.MongoDBContainer, string, error) {
	mongoContainer, err := mongodb.Run(ctx, "mongo:7.0",
		mongodb.WithReplicaSet("rs0"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("mongodb.Run: %w", err)
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("mc.ConnectionString: %w", err)
	}

	return mongoContainer, uri, nil
}

func startRedis(ctx context.Context) (*tcredis.RedisContainer, string, error) {
	redisContainer, err := tcredis.Run(ctx, "redis:7.4-alpine")
	if err != nil {
		return nil, "", fmt.Errorf("redis.Run: %w", err)
	}

	connStr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("rc.ConnectionString: %w", err)
	}

	return redisContainer, connStr, nil
}

// storeFactory returns a fresh, never written store for the given collection.
type storeFactory func(t *testing.T, collection string) (port.RecordStore[domain.Product], port.RecordStore[domain.Cart])

// runStoreContract checks the behavior every record store backend shares.
func runStoreContract(t *testing.T, newStores storeFactory) {
	t.Run("lazy init returns empty collection: ok", func(t *testing.T) {
		products, _ := newStores(t, randomCollection())
		ctx := t.Context()

		got, err := products.ReadAll(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)

		got, err = products.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("round trip keeps records and order: ok", func(t *testing.T) {
		products, _ := newStores(t, randomCollection())
		ctx := t.Context()

		want := []domain.Product{randomProduct("3"), randomProduct("1"), randomProduct("2")}
		require.NoError(t, products.WriteAll(ctx, want))

		got, err := products.ReadAll(ctx)
		require.NoError(t, err)
		assertProducts(t, want, got)
	})

	t.Run("write of read is stable: ok", func(t *testing.T) {
		products, _ := newStores(t, randomCollection())
		ctx := t.Context()

		want := []domain.Product{randomProduct("1"), randomProduct("2")}
		require.NoError(t, products.WriteAll(ctx, want))

		for range 3 {
			got, err := products.ReadAll(ctx)
			require.NoError(t, err)
			require.NoError(t, products.WriteAll(ctx, got))
		}

		got, err := products.ReadAll(ctx)
		require.NoError(t, err)
		assertProducts(t, want, got)
	})

	t.Run("write replaces whole collection: ok", func(t *testing.T) {
		products, _ := newStores(t, randomCollection())
		ctx := t.Context()

		require.NoError(t, products.WriteAll(ctx, []domain.Product{randomProduct("1"), randomProduct("2"), randomProduct("3")}))

		want := []domain.Product{randomProduct("9")}
		require.NoError(t, products.WriteAll(ctx, want))

		got, err := products.ReadAll(ctx)
		require.NoError(t, err)
		assertProducts(t, want, got)

		require.NoError(t, products.WriteAll(ctx, nil))

		got, err = products.ReadAll(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("carts keep lines: ok", func(t *testing.T) {
		_, carts := newStores(t, randomCollection())
		ctx := t.Context()

		want := []domain.Cart{
			{ID: "1", Products: []domain.CartLine{}},
			{ID: "2", Products: []domain.CartLine{
				{ProductID: "7", Quantity: 2},
				{ProductID: gofakeit.UUID(), Quantity: gofakeit.IntRange(1, 50)},
			}},
		}
		require.NoError(t, carts.WriteAll(ctx, want))

		got, err := carts.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateEmpty()))
	})
}

func randomCollection() string {
	return "c_" + gofakeit.LetterN(12)
}

func randomProduct(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Title:       gofakeit.ProductName(),
		Description: gofakeit.ProductDescription(),
		Code:        gofakeit.LetterN(8),
		Price:       decimal.NewFromFloat(gofakeit.Price(1, 1000)).Round(2),
		Status:      gofakeit.Bool(),
		Stock:       gofakeit.IntRange(0, 500),
		Category:    gofakeit.ProductCategory(),
		Thumbnails:  []string{gofakeit.URL(), gofakeit.URL()},
	}
}

func assertProducts(t *testing.T, expected, actual []domain.Product) {
	t.Helper()

	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	diff := cmp.Diff(expected, actual, decimalComparer, cmpopts.EquateEmpty())
	assert.Empty(t, diff)
}
