package domain

import "slices"

type Cart struct {
	ID       string     `json:"id"`
	Products []CartLine `json:"products"`
}

type CartLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// PopulatedCart is a cart whose lines carry the referenced product.
// Product is nil when the line points at a product that no longer exists.
type PopulatedCart struct {
	ID       string          `json:"id"`
	Products []PopulatedLine `json:"products"`
}

type PopulatedLine struct {
	ProductID string   `json:"productId"`
	Product   *Product `json:"product"`
	Quantity  int      `json:"quantity"`
}

func (c Cart) Clone() Cart {
	c.Products = slices.Clone(c.Products)
	if c.Products == nil {
		c.Products = []CartLine{}
	}
	return c
}

func (c Cart) LineIndex(productID string) int {
	return slices.IndexFunc(c.Products, func(l CartLine) bool {
		return l.ProductID == productID
	})
}

func CartIDs(carts []Cart) []string {
	ids := make([]string, 0, len(carts))
	for _, c := range carts {
		ids = append(ids, c.ID)
	}
	return ids
}
