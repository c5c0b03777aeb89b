package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var requiredProductFields = []string{"title", "description", "code", "price", "status", "stock", "category"}

// productFields fixes the order fields are applied in, so the first invalid
// field is always the one reported.
var productFields = []struct {
	name  string
	apply func(p *domain.Product, v any) error
}{
	{"title", textField("title", func(p *domain.Product, s string) { p.Title = s })},
	{"description", textField("description", func(p *domain.Product, s string) { p.Description = s })},
	{"code", textField("code", func(p *domain.Product, s string) { p.Code = s })},
	{"price", applyPrice},
	{"status", applyStatus},
	{"stock", applyStock},
	{"category", textField("category", func(p *domain.Product, s string) { p.Category = s })},
	{"thumbnails", applyThumbnails},
}

func newProductFromPayload(payload map[string]any) (domain.Product, error) {
	for _, field := range requiredProductFields {
		if v, ok := payload[field]; !ok || v == nil {
			return domain.Product{}, domain.NewValidationError(field, "is required")
		}
	}

	p := domain.Product{
		Status:     true,
		Thumbnails: []string{},
	}
	if err := applyProductFields(&p, payload); err != nil {
		return domain.Product{}, err
	}

	return p, nil
}

// applyProductFields coerces and assigns every recognized field present in
// payload. p is left untouched when any field is invalid.
func applyProductFields(p *domain.Product, payload map[string]any) error {
	next := p.Clone()

	for _, field := range productFields {
		v, ok := payload[field.name]
		if !ok {
			continue
		}
		if v == nil && field.name != "thumbnails" {
			return domain.NewValidationError(field.name, "must not be null")
		}
		if err := field.apply(&next, v); err != nil {
			return err
		}
	}

	*p = next
	return nil
}

func textField(name string, set func(p *domain.Product, s string)) func(p *domain.Product, v any) error {
	return func(p *domain.Product, v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return domain.NewValidationError(name, "must be a string")
		}

		s = strings.TrimSpace(s)
		if s == "" {
			return domain.NewValidationError(name, "must not be empty")
		}

		set(p, s)
		return nil
	}
}

func applyPrice(p *domain.Product, v any) error {
	if d, ok := v.(decimal.Decimal); ok {
		if d.IsNegative() {
			return domain.NewValidationError("price", "must not be negative")
		}
		p.Price = d
		return nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return domain.NewValidationError("price", "must be a number")
	}

	price, err := domain.ParsePrice(strings.TrimSpace(s))
	if err != nil {
		return domain.NewValidationError("price", err.Error())
	}

	p.Price = price
	return nil
}

func applyStock(p *domain.Product, v any) error {
	if f, ok := v.(float64); ok && f != math.Trunc(f) {
		return domain.NewValidationError("stock", "must be an integer")
	}

	var (
		stock int
		err   error
	)
	if s, ok := v.(string); ok {
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 0)
		stock = int(n)
	} else {
		stock, err = cast.ToIntE(v)
	}
	if err != nil {
		return domain.NewValidationError("stock", "must be an integer")
	}
	if stock < 0 {
		return domain.NewValidationError("stock", "must not be negative")
	}

	p.Stock = stock
	return nil
}

func applyStatus(p *domain.Product, v any) error {
	status, err := cast.ToBoolE(v)
	if err != nil {
		return domain.NewValidationError("status", "must be a boolean")
	}

	p.Status = status
	return nil
}

func applyThumbnails(p *domain.Product, v any) error {
	if v == nil {
		p.Thumbnails = []string{}
		return nil
	}

	switch v.(type) {
	case []string, []any:
	default:
		return domain.NewValidationError("thumbnails", "must be a list of strings")
	}

	thumbnails, err := cast.ToStringSliceE(v)
	if err != nil {
		return domain.NewValidationError("thumbnails", "must be a list of strings")
	}
	if thumbnails == nil {
		thumbnails = []string{}
	}

	p.Thumbnails = thumbnails
	return nil
}
