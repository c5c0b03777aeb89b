package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultLinkBase     = "/api/products"
)

// CatalogService owns the product collection. Mutations are serialized by mu
// so every read-modify-write cycle sees the previous one's result; reads go
// straight to the store.
type CatalogService struct {
	store    port.RecordStore[domain.Product]
	ids      port.IDAllocator
	notifier port.CatalogNotifier
	timeout  time.Duration
	linkBase string

	mu sync.Mutex
}

type CatalogOption func(*CatalogService)

func WithNotifier(n port.CatalogNotifier) CatalogOption {
	return func(s *CatalogService) {
		s.notifier = n
	}
}

func WithCatalogStoreTimeout(d time.Duration) CatalogOption {
	return func(s *CatalogService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLinkBase sets the path that navigation links in paged results point to.
func WithLinkBase(base string) CatalogOption {
	return func(s *CatalogService) {
		s.linkBase = base
	}
}

func NewCatalogService(store port.RecordStore[domain.Product], ids port.IDAllocator, opts ...CatalogOption) (*CatalogService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if ids == nil {
		return nil, fmt.Errorf("ids is nil")
	}

	s := &CatalogService{
		store:    store,
		ids:      ids,
		timeout:  DefaultStoreTimeout,
		linkBase: DefaultLinkBase,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	return domain.CloneProducts(products), nil
}

func (s *CatalogService) GetByID(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	idx := indexProduct(products, id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", id, domain.ErrNotFound)
	}

	return products[idx].Clone(), nil
}

func (s *CatalogService) Create(ctx context.Context, payload map[string]any) (domain.Product, error) {
	product, err := newProductFromPayload(payload)
	if err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	if indexCode(products, product.Code) >= 0 {
		return domain.Product{}, &domain.ConflictError{Field: "code", Value: product.Code}
	}

	product.ID, err = s.ids.NextID(domain.ProductIDs(products))
	if err != nil {
		return domain.Product{}, fmt.Errorf("ids.NextID: %w", err)
	}

	products = append(products, product)
	if err := s.write(ctx, products); err != nil {
		return domain.Product{}, err
	}

	s.notify(ctx, products)

	return product.Clone(), nil
}

// Update merges the known fields of payload onto the product. An "id" key is
// ignored. A new code must not belong to any other product.
func (s *CatalogService) Update(ctx context.Context, id string, payload map[string]any) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	idx := indexProduct(products, id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", id, domain.ErrNotFound)
	}

	updated := products[idx].Clone()
	if err := applyProductFields(&updated, payload); err != nil {
		return domain.Product{}, err
	}
	updated.ID = products[idx].ID

	if updated.Code != products[idx].Code {
		if other := indexCode(products, updated.Code); other >= 0 && other != idx {
			return domain.Product{}, &domain.ConflictError{Field: "code", Value: updated.Code}
		}
	}

	products[idx] = updated
	if err := s.write(ctx, products); err != nil {
		return domain.Product{}, err
	}

	s.notify(ctx, products)

	return updated.Clone(), nil
}

// Delete reports whether a product was removed. Cart lines referencing it are
// left in place.
func (s *CatalogService) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read(ctx)
	if err != nil {
		return false, err
	}

	idx := indexProduct(products, id)
	if idx < 0 {
		return false, nil
	}

	products = slices.Delete(products, idx, idx+1)
	if err := s.write(ctx, products); err != nil {
		return false, err
	}

	s.notify(ctx, products)

	return true, nil
}

func (s *CatalogService) Query(ctx context.Context, q domain.ProductQuery) (domain.PagedResult, error) {
	products, err := s.read(ctx)
	if err != nil {
		return domain.PagedResult{}, err
	}

	return Paginate(products, q, s.linkBase), nil
}

func (s *CatalogService) read(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "products.ReadAll", Err: err}
	}

	return products, nil
}

func (s *CatalogService) write(ctx context.Context, products []domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.WriteAll(ctx, products); err != nil {
		return &domain.StorageError{Op: "products.WriteAll", Err: err}
	}

	return nil
}

func (s *CatalogService) notify(ctx context.Context, products []domain.Product) {
	if s.notifier == nil {
		return
	}

	s.notifier.NotifyCatalogChanged(ctx, domain.CloneProducts(products))
}

func indexProduct(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool {
		return p.ID == id
	})
}

func indexCode(products []domain.Product, code string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool {
		return p.Code == code
	})
}
