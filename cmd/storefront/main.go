// Command storefront serves the product catalog and cart API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/httpapi"
	"github.com/nikolayk812/storefront/internal/idgen"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/nikolayk812/storefront/internal/notify"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a TOML or YAML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("service_starting", zap.String("driver", cfg.Store.Driver), zap.String("ids", cfg.IDs.Strategy))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	openCtx, cancelOpen := context.WithTimeout(ctx, cfg.Store.Timeout)
	store, err := openBackend(openCtx, cfg.Store)
	cancelOpen()
	if err != nil {
		return fmt.Errorf("openBackend: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logger.Error("store_close_error", zap.Error(err))
		}
	}()

	if cfg.Store.Instrument {
		metrics, err := repository.NewStoreMetrics(registry)
		if err != nil {
			return fmt.Errorf("repository.NewStoreMetrics: %w", err)
		}
		store = store.instrument(metrics)
	}

	productIDs, err := idgen.New(cfg.IDs.Strategy, cfg.IDs.Node)
	if err != nil {
		return fmt.Errorf("idgen.New: %w", err)
	}
	cartIDs, err := idgen.New(cfg.IDs.Strategy, cfg.IDs.Node)
	if err != nil {
		return fmt.Errorf("idgen.New: %w", err)
	}

	var forwarder *notify.KafkaForwarder
	if cfg.Notify.KafkaEnabled() {
		writer := notify.NewKafkaWriter(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, logger.Named("kafka"))
		forwarder, err = notify.NewKafkaForwarder(writer, logger.Named("kafka"))
		if err != nil {
			return fmt.Errorf("notify.NewKafkaForwarder: %w", err)
		}
		defer func() {
			if err := forwarder.Close(); err != nil {
				logger.Warn("kafka_close_error", zap.Error(err))
			}
		}()
	}

	// deferred after the forwarder so it drains before the writer closes
	broadcaster, err := notify.NewBroadcaster(cfg.Notify.PoolSize, logger.Named("notify"), registry)
	if err != nil {
		return fmt.Errorf("notify.NewBroadcaster: %w", err)
	}
	defer func() {
		if err := broadcaster.Close(cfg.HTTP.ShutdownTimeout); err != nil {
			logger.Warn("notify_close_error", zap.Error(err))
		}
	}()

	if forwarder != nil {
		if err := broadcaster.Subscribe(forwarder.Handle); err != nil {
			return fmt.Errorf("broadcaster.Subscribe: %w", err)
		}
		logger.Info("kafka_forwarding", zap.Strings("brokers", cfg.Notify.KafkaBrokers), zap.String("topic", cfg.Notify.KafkaTopic))
	}

	catalog, err := service.NewCatalogService(store.products, productIDs,
		service.WithNotifier(broadcaster),
		service.WithCatalogStoreTimeout(cfg.Store.Timeout),
		service.WithLinkBase(cfg.Catalog.LinkBase),
	)
	if err != nil {
		return fmt.Errorf("service.NewCatalogService: %w", err)
	}

	carts, err := service.NewCartService(store.carts, cartIDs, catalog,
		service.WithCartStoreTimeout(cfg.Store.Timeout),
	)
	if err != nil {
		return fmt.Errorf("service.NewCartService: %w", err)
	}

	router, err := httpapi.NewRouter(httpapi.RouterConfig{
		Catalog:  catalog,
		Carts:    carts,
		Logger:   logger.Named("http"),
		Registry: registry,
	})
	if err != nil {
		return fmt.Errorf("httpapi.NewRouter: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_listen", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", zap.Error(err))
	}

	logger.Info("service_stopped")
	return nil
}
