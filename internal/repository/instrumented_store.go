package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/port"
	"github.com/prometheus/client_golang/prometheus"
)

type StoreMetrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "store",
			Name:      "ops_total",
			Help:      "Record store operations by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "store",
			Name:      "op_duration_seconds",
			Help:      "Record store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op"}),
	}

	for _, c := range []prometheus.Collector{m.ops, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("reg.Register: %w", err)
		}
	}

	return m, nil
}

// InstrumentedStore counts and times every call to the wrapped store.
type InstrumentedStore[T any] struct {
	next       port.RecordStore[T]
	collection string
	metrics    *StoreMetrics
}

func Instrument[T any](next port.RecordStore[T], collection string, metrics *StoreMetrics) port.RecordStore[T] {
	if metrics == nil {
		return next
	}

	return &InstrumentedStore[T]{
		next:       next,
		collection: collection,
		metrics:    metrics,
	}
}

func (s *InstrumentedStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	defer s.observe("read_all", time.Now())

	records, err := s.next.ReadAll(ctx)
	s.count("read_all", err)

	return records, err
}

func (s *InstrumentedStore[T]) WriteAll(ctx context.Context, records []T) error {
	defer s.observe("write_all", time.Now())

	err := s.next.WriteAll(ctx, records)
	s.count("write_all", err)

	return err
}

func (s *InstrumentedStore[T]) observe(op string, start time.Time) {
	s.metrics.duration.WithLabelValues(s.collection, op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore[T]) count(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.ops.WithLabelValues(s.collection, op, result).Inc()
}
