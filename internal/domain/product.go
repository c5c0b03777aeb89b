package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Status      bool            `json:"status"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Thumbnails  []string        `json:"thumbnails"`
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	p.Thumbnails = slices.Clone(p.Thumbnails)
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}
	return p
}

func CloneProducts(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, p.Clone())
	}
	return out
}

func ProductIDs(products []Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
