package repository_test

import (
	"testing"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedStore(t *testing.T) {
	ctx := t.Context()
	reg := prometheus.NewRegistry()

	metrics, err := repository.NewStoreMetrics(reg)
	require.NoError(t, err)

	mem := repository.NewMemory[domain.Product]()
	store := repository.Instrument(mem, "products", metrics)

	_, err = store.ReadAll(ctx)
	require.NoError(t, err)
	require.NoError(t, store.WriteAll(ctx, []domain.Product{randomProduct("1")}))

	mem.SetReadOnly(true)
	require.Error(t, store.WriteAll(ctx, nil))

	count, err := testutil.GatherAndCount(reg, "storefront_store_ops_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(reg, "storefront_store_op_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInstrumentWithoutMetrics(t *testing.T) {
	mem := repository.NewMemory[domain.Product]()
	assert.Same(t, mem, repository.Instrument(mem, "products", nil))
}

func TestNewStoreMetricsTwice(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := repository.NewStoreMetrics(reg)
	require.NoError(t, err)

	_, err = repository.NewStoreMetrics(reg)
	require.Error(t, err)
}
