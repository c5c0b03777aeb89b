package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const TopicCatalogChanged = "catalog:changed"

// CatalogChanged carries the full listing after a successful product write.
// Seq grows with every write, so the highest Seq seen is the current listing.
type CatalogChanged struct {
	Seq      uint64           `json:"seq"`
	Products []domain.Product `json:"products"`
	At       time.Time        `json:"at"`
}

// Handler receives catalog events on a pool worker.
type Handler func(ctx context.Context, event CatalogChanged)

// Broadcaster fans catalog changes out to bus subscribers. Publishing runs on
// a non-blocking worker pool: when every worker is busy the event is dropped
// and counted instead of stalling the caller.
type Broadcaster struct {
	bus     EventBus.Bus
	pool    *ants.Pool
	logger  *zap.Logger
	dropped prometheus.Counter
	seq     atomic.Uint64
}

var _ port.CatalogNotifier = (*Broadcaster)(nil)

func NewBroadcaster(poolSize int, logger *zap.Logger, reg prometheus.Registerer) (*Broadcaster, error) {
	if poolSize < 1 {
		return nil, fmt.Errorf("pool size must be positive: %d", poolSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Catalog change notifications dropped because the pool was saturated.",
	})
	if reg != nil {
		if err := reg.Register(dropped); err != nil {
			return nil, fmt.Errorf("reg.Register: %w", err)
		}
	}

	pool, err := ants.NewPool(poolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("catalog subscriber panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("ants.NewPool: %w", err)
	}

	return &Broadcaster{
		bus:     EventBus.New(),
		pool:    pool,
		logger:  logger,
		dropped: dropped,
	}, nil
}

// NotifyCatalogChanged never blocks. The event outlives the caller's request,
// so only the context values are passed on. Callers serialize their writes,
// so Seq follows write order even though delivery does not.
func (b *Broadcaster) NotifyCatalogChanged(ctx context.Context, products []domain.Product) {
	event := CatalogChanged{
		Seq:      b.seq.Add(1),
		Products: products,
		At:       time.Now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)

	err := b.pool.Submit(func() {
		b.bus.Publish(TopicCatalogChanged, ctx, event)
	})
	if err != nil {
		b.dropped.Inc()
		b.logger.Warn("catalog change dropped", zap.Int("products", len(products)), zap.Error(err))
	}
}

func (b *Broadcaster) Subscribe(h Handler) error {
	if err := b.bus.Subscribe(TopicCatalogChanged, h); err != nil {
		return fmt.Errorf("bus.Subscribe: %w", err)
	}
	return nil
}

func (b *Broadcaster) Unsubscribe(h Handler) error {
	if err := b.bus.Unsubscribe(TopicCatalogChanged, h); err != nil {
		return fmt.Errorf("bus.Unsubscribe: %w", err)
	}
	return nil
}

// Close waits up to timeout for in-flight events, then stops the pool.
// Closing twice is a no-op.
func (b *Broadcaster) Close(timeout time.Duration) error {
	err := b.pool.ReleaseTimeout(timeout)
	if errors.Is(err, ants.ErrPoolClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pool.ReleaseTimeout: %w", err)
	}
	return nil
}
