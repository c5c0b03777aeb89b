package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
}

type CatalogNotifier interface {
	// NotifyCatalogChanged must return promptly; delivery happens elsewhere.
	NotifyCatalogChanged(ctx context.Context, products []domain.Product)
}
