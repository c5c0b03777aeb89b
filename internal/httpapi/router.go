package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Catalog interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Create(ctx context.Context, payload map[string]any) (domain.Product, error)
	Update(ctx context.Context, id string, payload map[string]any) (domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	Query(ctx context.Context, q domain.ProductQuery) (domain.PagedResult, error)
}

type Carts interface {
	Create(ctx context.Context) (domain.Cart, error)
	ListAll(ctx context.Context) ([]domain.Cart, error)
	GetByID(ctx context.Context, cartID string) (domain.Cart, error)
	AddLine(ctx context.Context, cartID, productID string, quantity int) (domain.Cart, error)
	SetLineQuantity(ctx context.Context, cartID, productID string, quantity int) (domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, productID string) (domain.Cart, error)
	ReplaceLines(ctx context.Context, cartID string, lines []domain.CartLine) (domain.Cart, error)
	Clear(ctx context.Context, cartID string) (domain.Cart, error)
	Populate(ctx context.Context, cartID string) (domain.PopulatedCart, error)
}

type RouterConfig struct {
	Catalog Catalog
	Carts   Carts
	Logger  *zap.Logger
	// Registry serves /metrics and records request metrics. Optional.
	Registry *prometheus.Registry
}

func NewRouter(cfg RouterConfig) (*mux.Router, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if cfg.Carts == nil {
		return nil, fmt.Errorf("carts is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	h := &handler{
		catalog: cfg.Catalog,
		carts:   cfg.Carts,
		logger:  cfg.Logger,
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	r.Use(withRequestID, withLogging(cfg.Logger))

	if cfg.Registry != nil {
		m, err := newHTTPMetrics(cfg.Registry)
		if err != nil {
			return nil, fmt.Errorf("newHTTPMetrics: %w", err)
		}
		r.Use(m.middleware)
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	products := r.PathPrefix("/api/products").Subrouter()
	products.HandleFunc("", h.QueryProducts).Methods(http.MethodGet)
	products.HandleFunc("", h.CreateProduct).Methods(http.MethodPost)
	products.HandleFunc("/{pid}", h.GetProduct).Methods(http.MethodGet)
	products.HandleFunc("/{pid}", h.UpdateProduct).Methods(http.MethodPut)
	products.HandleFunc("/{pid}", h.DeleteProduct).Methods(http.MethodDelete)

	carts := r.PathPrefix("/api/carts").Subrouter()
	carts.HandleFunc("", h.CreateCart).Methods(http.MethodPost)
	carts.HandleFunc("", h.ListCarts).Methods(http.MethodGet)
	carts.HandleFunc("/{cid}", h.GetCart).Methods(http.MethodGet)
	carts.HandleFunc("/{cid}", h.ReplaceLines).Methods(http.MethodPut)
	carts.HandleFunc("/{cid}", h.ClearCart).Methods(http.MethodDelete)
	carts.HandleFunc("/{cid}/products/{pid}", h.AddLine).Methods(http.MethodPost)
	carts.HandleFunc("/{cid}/product/{pid}", h.AddLine).Methods(http.MethodPost)
	carts.HandleFunc("/{cid}/products/{pid}", h.SetLineQuantity).Methods(http.MethodPut)
	carts.HandleFunc("/{cid}/products/{pid}", h.RemoveLine).Methods(http.MethodDelete)

	return r, nil
}
