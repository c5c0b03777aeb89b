package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr string
	}{
		{
			name: "memory: ok",
			cfg:  config.StoreConfig{Driver: config.DriverMemory},
		},
		{
			name: "file: ok",
			cfg:  config.StoreConfig{Driver: config.DriverFile, DataDir: filepath.Join(dir, "data")},
		},
		{
			name: "bolt: ok",
			cfg:  config.StoreConfig{Driver: config.DriverBolt, BoltPath: filepath.Join(dir, "bolt", "storefront.db")},
		},
		{
			name:    "unknown driver: error",
			cfg:     config.StoreConfig{Driver: "sqlite"},
			wantErr: `unknown store driver "sqlite"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()

			b, err := openBackend(ctx, tt.cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() {
				assert.NoError(t, b.close(context.Background()))
			})

			products, err := b.products.ReadAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, products)

			want := []domain.Cart{{ID: "1", Products: []domain.CartLine{{ProductID: "1", Quantity: 2}}}}
			require.NoError(t, b.carts.WriteAll(ctx, want))

			got, err := b.carts.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestBackendInstrument(t *testing.T) {
	metrics, err := repository.NewStoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	b, err := openBackend(t.Context(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)

	b = b.instrument(metrics)
	assert.IsType(t, &repository.InstrumentedStore[domain.Product]{}, b.products)
	assert.IsType(t, &repository.InstrumentedStore[domain.Cart]{}, b.carts)
}
