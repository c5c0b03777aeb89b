package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/spf13/cast"
)

// CartService owns the cart collection. Product existence is checked through
// ProductLookup, but deleting a product never touches carts.
type CartService struct {
	store    port.RecordStore[domain.Cart]
	ids      port.IDAllocator
	products port.ProductLookup
	timeout  time.Duration

	mu sync.Mutex
}

type CartOption func(*CartService)

func WithCartStoreTimeout(d time.Duration) CartOption {
	return func(s *CartService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewCartService(store port.RecordStore[domain.Cart], ids port.IDAllocator, products port.ProductLookup, opts ...CartOption) (*CartService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if ids == nil {
		return nil, fmt.Errorf("ids is nil")
	}
	if products == nil {
		return nil, fmt.Errorf("products is nil")
	}

	s := &CartService{
		store:    store,
		ids:      ids,
		products: products,
		timeout:  DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *CartService) Create(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	carts, err := s.read(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	id, err := s.ids.NextID(domain.CartIDs(carts))
	if err != nil {
		return domain.Cart{}, fmt.Errorf("ids.NextID: %w", err)
	}

	cart := domain.Cart{
		ID:       id,
		Products: []domain.CartLine{},
	}

	carts = append(carts, cart)
	if err := s.write(ctx, carts); err != nil {
		return domain.Cart{}, err
	}

	return cart.Clone(), nil
}

func (s *CartService) ListAll(ctx context.Context) ([]domain.Cart, error) {
	carts, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Cart, 0, len(carts))
	for _, c := range carts {
		result = append(result, c.Clone())
	}

	return result, nil
}

func (s *CartService) GetByID(ctx context.Context, cartID string) (domain.Cart, error) {
	carts, err := s.read(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexCart(carts, cartID)
	if idx < 0 {
		return domain.Cart{}, cartNotFound(cartID)
	}

	return carts[idx].Clone(), nil
}

// AddLine increments the line for productID or appends a new one. A quantity
// below 1 counts as 1. Unknown products are rejected.
func (s *CartService) AddLine(ctx context.Context, cartID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	return s.mutate(ctx, cartID, func(cart *domain.Cart) (bool, error) {
		if err := s.checkProduct(ctx, productID); err != nil {
			return false, err
		}

		if idx := cart.LineIndex(productID); idx >= 0 {
			if quantity > math.MaxInt-cart.Products[idx].Quantity {
				return false, domain.NewValidationError("quantity", "line quantity would overflow")
			}
			cart.Products[idx].Quantity += quantity
			return true, nil
		}

		cart.Products = append(cart.Products, domain.CartLine{
			ProductID: productID,
			Quantity:  quantity,
		})
		return true, nil
	})
}

func (s *CartService) SetLineQuantity(ctx context.Context, cartID, productID string, quantity int) (domain.Cart, error) {
	return s.mutate(ctx, cartID, func(cart *domain.Cart) (bool, error) {
		idx := cart.LineIndex(productID)
		if idx < 0 {
			return false, domain.NewValidationError("product", fmt.Sprintf("no line for product %s", productID))
		}
		if quantity < 1 {
			return false, domain.NewValidationError("quantity", "must be positive")
		}

		cart.Products[idx].Quantity = quantity
		return true, nil
	})
}

// RemoveLine is idempotent. Removing an absent line does not write.
func (s *CartService) RemoveLine(ctx context.Context, cartID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, cartID, func(cart *domain.Cart) (bool, error) {
		idx := cart.LineIndex(productID)
		if idx < 0 {
			return false, nil
		}

		cart.Products = slices.Delete(cart.Products, idx, idx+1)
		return true, nil
	})
}

// ReplaceLines swaps the whole line list. Referenced products are not looked
// up, but the lines must still be well formed.
func (s *CartService) ReplaceLines(ctx context.Context, cartID string, lines []domain.CartLine) (domain.Cart, error) {
	if err := validateLines(lines); err != nil {
		return domain.Cart{}, err
	}

	return s.mutate(ctx, cartID, func(cart *domain.Cart) (bool, error) {
		cart.Products = slices.Clone(lines)
		if cart.Products == nil {
			cart.Products = []domain.CartLine{}
		}
		return true, nil
	})
}

func (s *CartService) Clear(ctx context.Context, cartID string) (domain.Cart, error) {
	return s.ReplaceLines(ctx, cartID, nil)
}

// Populate attaches the current product to every line. Lines whose product
// is gone are kept with a nil Product.
func (s *CartService) Populate(ctx context.Context, cartID string) (domain.PopulatedCart, error) {
	cart, err := s.GetByID(ctx, cartID)
	if err != nil {
		return domain.PopulatedCart{}, err
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return domain.PopulatedCart{}, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	populated := domain.PopulatedCart{
		ID:       cart.ID,
		Products: make([]domain.PopulatedLine, 0, len(cart.Products)),
	}
	for _, line := range cart.Products {
		pl := domain.PopulatedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if p, ok := byID[line.ProductID]; ok {
			pl.Product = &p
		}
		populated.Products = append(populated.Products, pl)
	}

	return populated, nil
}

// CoerceQuantity turns transport input into a line quantity. Anything that is
// not a positive number becomes 1.
func CoerceQuantity(v any) int {
	q, err := cast.ToIntE(v)
	if err != nil || q < 1 {
		return 1
	}
	return q
}

func (s *CartService) mutate(ctx context.Context, cartID string, fn func(cart *domain.Cart) (bool, error)) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	carts, err := s.read(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexCart(carts, cartID)
	if idx < 0 {
		return domain.Cart{}, cartNotFound(cartID)
	}

	cart := carts[idx].Clone()
	changed, err := fn(&cart)
	if err != nil {
		return domain.Cart{}, err
	}
	if !changed {
		return cart, nil
	}

	carts[idx] = cart
	if err := s.write(ctx, carts); err != nil {
		return domain.Cart{}, err
	}

	return cart.Clone(), nil
}

func (s *CartService) checkProduct(ctx context.Context, productID string) error {
	_, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("product", "product not found")
	}
	return err
}

func (s *CartService) read(ctx context.Context) ([]domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	carts, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "carts.ReadAll", Err: err}
	}

	return carts, nil
}

func (s *CartService) write(ctx context.Context, carts []domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.WriteAll(ctx, carts); err != nil {
		return &domain.StorageError{Op: "carts.WriteAll", Err: err}
	}

	return nil
}

func validateLines(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))

	for i, line := range lines {
		if line.ProductID == "" {
			return domain.NewValidationError(fmt.Sprintf("products[%d].product", i), "is required")
		}
		if line.Quantity < 1 {
			return domain.NewValidationError(fmt.Sprintf("products[%d].quantity", i), "must be positive")
		}
		if _, ok := seen[line.ProductID]; ok {
			return domain.NewValidationError(fmt.Sprintf("products[%d].product", i), fmt.Sprintf("duplicate product %s", line.ProductID))
		}
		seen[line.ProductID] = struct{}{}
	}

	return nil
}

func indexCart(carts []domain.Cart, id string) int {
	return slices.IndexFunc(carts, func(c domain.Cart) bool {
		return c.ID == id
	})
}

func cartNotFound(id string) error {
	return fmt.Errorf("cart[%s]: %w", id, domain.ErrNotFound)
}
