package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	cartsCollection    = "carts"
)

type backend struct {
	products port.RecordStore[domain.Product]
	carts    port.RecordStore[domain.Cart]
	close    func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return backend{
			products: repository.NewMemory[domain.Product](),
			carts:    repository.NewMemory[domain.Cart](),
			close:    func(context.Context) error { return nil },
		}, nil
	case config.DriverFile:
		return openFile(cfg.DataDir)
	case config.DriverBolt:
		return openBolt(cfg.BoltPath)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.PostgresDSN)
	case config.DriverMongo:
		return openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverRedis:
		return openRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return backend{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openFile(dir string) (backend, error) {
	products, err := repository.NewFile[domain.Product](filepath.Join(dir, productsCollection+".json"))
	if err != nil {
		return backend{}, fmt.Errorf("repository.NewFile: %w", err)
	}

	carts, err := repository.NewFile[domain.Cart](filepath.Join(dir, cartsCollection+".json"))
	if err != nil {
		return backend{}, fmt.Errorf("repository.NewFile: %w", err)
	}

	return backend{
		products: products,
		carts:    carts,
		close:    func(context.Context) error { return nil },
	}, nil
}

func openBolt(path string) (backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backend{}, fmt.Errorf("os.MkdirAll: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return backend{}, fmt.Errorf("bolt.Open: %w", err)
	}

	products, err := repository.NewBolt[domain.Product](db, productsCollection)
	if err != nil {
		return backend{}, closeOnErr(db.Close, fmt.Errorf("repository.NewBolt: %w", err))
	}

	carts, err := repository.NewBolt[domain.Cart](db, cartsCollection)
	if err != nil {
		return backend{}, closeOnErr(db.Close, fmt.Errorf("repository.NewBolt: %w", err))
	}

	return backend{
		products: products,
		carts:    carts,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}

// openPostgres expects the records schema from internal/migrations to be
// applied already and refuses to start otherwise.
func openPostgres(ctx context.Context, dsn string) (backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return backend{}, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return backend{}, fmt.Errorf("pool.Ping: %w", err)
	}

	closePool := func() error {
		pool.Close()
		return nil
	}

	if err := repository.CheckPostgresSchema(ctx, pool); err != nil {
		return backend{}, closeOnErr(closePool, fmt.Errorf("repository.CheckPostgresSchema: %w", err))
	}

	products, err := repository.NewPostgres[domain.Product](pool, productsCollection)
	if err != nil {
		return backend{}, closeOnErr(closePool, fmt.Errorf("repository.NewPostgres: %w", err))
	}

	carts, err := repository.NewPostgres[domain.Cart](pool, cartsCollection)
	if err != nil {
		return backend{}, closeOnErr(closePool, fmt.Errorf("repository.NewPostgres: %w", err))
	}

	return backend{
		products: products,
		carts:    carts,
		close:    func(context.Context) error { return closePool() },
	}, nil
}

func openMongo(ctx context.Context, uri, database string) (backend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return backend{}, fmt.Errorf("mongo.Connect: %w", err)
	}

	disconnect := func() error {
		return client.Disconnect(context.Background())
	}

	if err := client.Ping(ctx, nil); err != nil {
		return backend{}, closeOnErr(disconnect, fmt.Errorf("client.Ping: %w", err))
	}

	products, err := repository.NewMongo[domain.Product](client, database, productsCollection)
	if err != nil {
		return backend{}, closeOnErr(disconnect, fmt.Errorf("repository.NewMongo: %w", err))
	}

	carts, err := repository.NewMongo[domain.Cart](client, database, cartsCollection)
	if err != nil {
		return backend{}, closeOnErr(disconnect, fmt.Errorf("repository.NewMongo: %w", err))
	}

	return backend{
		products: products,
		carts:    carts,
		close:    client.Disconnect,
	}, nil
}

func openRedis(ctx context.Context, addr, prefix string) (backend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		return backend{}, closeOnErr(client.Close, fmt.Errorf("client.Ping: %w", err))
	}

	products, err := repository.NewRedis[domain.Product](client, prefix, productsCollection)
	if err != nil {
		return backend{}, closeOnErr(client.Close, fmt.Errorf("repository.NewRedis: %w", err))
	}

	carts, err := repository.NewRedis[domain.Cart](client, prefix, cartsCollection)
	if err != nil {
		return backend{}, closeOnErr(client.Close, fmt.Errorf("repository.NewRedis: %w", err))
	}

	return backend{
		products: products,
		carts:    carts,
		close:    func(context.Context) error { return client.Close() },
	}, nil
}

func closeOnErr(closeFn func() error, err error) error {
	if cerr := closeFn(); cerr != nil {
		return fmt.Errorf("%w (close: %v)", err, cerr)
	}
	return err
}

// instrument wraps both stores with Prometheus metrics.
func (b backend) instrument(metrics *repository.StoreMetrics) backend {
	b.products = repository.Instrument(b.products, productsCollection, metrics)
	b.carts = repository.Instrument(b.carts, cartsCollection, metrics)
	return b
}
