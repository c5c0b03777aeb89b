package service_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/idgen"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartService(t *testing.T) {
	f := newFixture(t)

	_, err := service.NewCartService(nil, idgen.Sequential{}, f.catalog)
	require.EqualError(t, err, "store is nil")

	_, err = service.NewCartService(f.carts, nil, f.catalog)
	require.EqualError(t, err, "ids is nil")

	_, err = service.NewCartService(f.carts, idgen.Sequential{}, nil)
	require.EqualError(t, err, "products is nil")
}

func TestCartCreate(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	c1, err := f.cartService.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cart{ID: "1", Products: []domain.CartLine{}}, c1)

	c2, err := f.cartService.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", c2.ID)

	carts, err := f.cartService.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Cart{c1, c2}, carts)

	got, err := f.cartService.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, c2, got)

	_, err = f.cartService.GetByID(ctx, "3")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "cart[3]: not found")
}

func TestCartAddLine(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p1 := mustCreate(t, f.catalog, randomPayload())
	p2 := mustCreate(t, f.catalog, randomPayload())

	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p1.ID, 2)
	require.NoError(t, err)

	got, err := f.cartService.AddLine(ctx, cart.ID, p1.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: p1.ID, Quantity: 5}}, got.Products)

	// non-positive quantity counts as one
	got, err = f.cartService.AddLine(ctx, cart.ID, p2.ID, 0)
	require.NoError(t, err)
	got, err = f.cartService.AddLine(ctx, cart.ID, p2.ID, -4)
	require.NoError(t, err)

	want := []domain.CartLine{
		{ProductID: p1.ID, Quantity: 5},
		{ProductID: p2.ID, Quantity: 2},
	}
	assert.Equal(t, want, got.Products)

	stored, err := f.cartService.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Products)
}

func TestCartAddLineErrors(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, "missing", p.ID, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.cartService.AddLine(ctx, cart.ID, "missing", 1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, &domain.ValidationError{Field: "product", Reason: "product not found"}, verr)

	stored, err := f.cartService.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Products)
}

func TestCartAddLineOverflow(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p.ID, math.MaxInt)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p.ID, 1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	stored, err := f.cartService.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: p.ID, Quantity: math.MaxInt}}, stored.Products)
}

func TestCartSetLineQuantity(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.SetLineQuantity(ctx, cart.ID, p.ID, 3)
	require.True(t, domain.IsValidation(err))

	_, err = f.cartService.AddLine(ctx, cart.ID, p.ID, 1)
	require.NoError(t, err)

	got, err := f.cartService.SetLineQuantity(ctx, cart.ID, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: p.ID, Quantity: 7}}, got.Products)

	for _, q := range []int{0, -1} {
		_, err = f.cartService.SetLineQuantity(ctx, cart.ID, p.ID, q)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "quantity", verr.Field)
	}

	stored, err := f.cartService.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Products[0].Quantity)

	_, err = f.cartService.SetLineQuantity(ctx, "missing", p.ID, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartRemoveLine(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p1 := mustCreate(t, f.catalog, randomPayload())
	p2 := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p1.ID, 1)
	require.NoError(t, err)
	before, err := f.cartService.AddLine(ctx, cart.ID, p2.ID, 4)
	require.NoError(t, err)

	// absent line is a no-op and does not need a writable store
	f.carts.SetReadOnly(true)
	got, err := f.cartService.RemoveLine(ctx, cart.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, before, got)
	f.carts.SetReadOnly(false)

	got, err = f.cartService.RemoveLine(ctx, cart.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: p2.ID, Quantity: 4}}, got.Products)

	_, err = f.cartService.RemoveLine(ctx, "missing", p1.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartReplaceLines(t *testing.T) {
	tests := []struct {
		name      string
		lines     []domain.CartLine
		wantField string
	}{
		{
			name: "unknown products accepted: ok",
			lines: []domain.CartLine{
				{ProductID: "100", Quantity: 2},
				{ProductID: "200", Quantity: 1},
			},
		},
		{
			name:  "empty: ok",
			lines: []domain.CartLine{},
		},
		{
			name:      "zero quantity: error",
			lines:     []domain.CartLine{{ProductID: "1", Quantity: 0}},
			wantField: "products[0].quantity",
		},
		{
			name:      "empty product: error",
			lines:     []domain.CartLine{{ProductID: "1", Quantity: 1}, {Quantity: 1}},
			wantField: "products[1].product",
		},
		{
			name: "duplicate product: error",
			lines: []domain.CartLine{
				{ProductID: "1", Quantity: 1},
				{ProductID: "1", Quantity: 2},
			},
			wantField: "products[1].product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			f := newFixture(t)

			cart, err := f.cartService.Create(ctx)
			require.NoError(t, err)

			got, err := f.cartService.ReplaceLines(ctx, cart.ID, tt.lines)
			if tt.wantField != "" {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lines, got.Products)

			stored, err := f.cartService.GetByID(ctx, cart.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.lines, stored.Products)
		})
	}
}

func TestCartClear(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p.ID, 3)
	require.NoError(t, err)

	got, err := f.cartService.Clear(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{}, got.Products)

	_, err = f.cartService.Clear(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartPopulate(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p1 := mustCreate(t, f.catalog, randomPayload())
	p2 := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	_, err = f.cartService.AddLine(ctx, cart.ID, p1.ID, 1)
	require.NoError(t, err)
	_, err = f.cartService.AddLine(ctx, cart.ID, p2.ID, 2)
	require.NoError(t, err)

	// deleting a product leaves the line dangling
	_, err = f.catalog.Delete(ctx, p2.ID)
	require.NoError(t, err)

	got, err := f.cartService.Populate(ctx, cart.ID)
	require.NoError(t, err)

	require.Len(t, got.Products, 2)
	assert.Equal(t, cart.ID, got.ID)

	require.NotNil(t, got.Products[0].Product)
	assertProduct(t, p1, *got.Products[0].Product)
	assert.Equal(t, 1, got.Products[0].Quantity)

	assert.Equal(t, p2.ID, got.Products[1].ProductID)
	assert.Nil(t, got.Products[1].Product)
	assert.Equal(t, 2, got.Products[1].Quantity)

	_, err = f.cartService.Populate(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{in: 3, want: 3},
		{in: "4", want: 4},
		{in: 2.0, want: 2},
		{in: "abc", want: 1},
		{in: nil, want: 1},
		{in: 0, want: 1},
		{in: -5, want: 1},
		{in: "", want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, service.CoerceQuantity(tt.in), "input %#v", tt.in)
	}
}

func TestCartConcurrentAddLine(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	p := mustCreate(t, f.catalog, randomPayload())
	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	const n = 40

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.cartService.AddLine(ctx, cart.ID, p.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.cartService.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: p.ID, Quantity: n}}, got.Products)
}

func TestCartStorageErrors(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)

	f.carts.SetReadOnly(true)

	_, err = f.cartService.Create(ctx)
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "carts.WriteAll", serr.Op)

	_, err = f.cartService.Clear(ctx, cart.ID)
	require.True(t, domain.IsStorage(err))

	carts, err := service.NewCartService(blockingStore[domain.Cart]{}, idgen.Sequential{}, f.catalog,
		service.WithCartStoreTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = carts.GetByID(ctx, "1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, domain.IsStorage(err))
}

func TestEndToEndScenario(t *testing.T) {
	ctx := t.Context()
	f := newFixture(t)

	shoe, err := f.catalog.Create(ctx, map[string]any{
		"title":       "Shoe",
		"description": "d",
		"code":        "SH1",
		"price":       100,
		"status":      true,
		"stock":       5,
		"category":    "Footwear",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", shoe.ID)

	cart, err := f.cartService.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", cart.ID)

	cart, err = f.cartService.AddLine(ctx, "1", "1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Cart{
		ID:       "1",
		Products: []domain.CartLine{{ProductID: "1", Quantity: 1}},
	}, cart)

	page, err := f.catalog.Query(ctx, domain.ProductQuery{
		Filter: domain.ParseFilter("category:Footwear"),
		Sort:   domain.SortAsc,
		Page:   1,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, "1", page.Docs[0].ID)
	assert.True(t, decimal.NewFromInt(100).Equal(page.Docs[0].Price))
	assert.False(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	assert.Equal(t, 1, page.TotalPages)
}
