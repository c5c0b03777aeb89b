package service

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Paginate filters, orders and slices products. Sorting is stable, so equal
// prices keep their stored order, and an unsorted query keeps insertion order.
func Paginate(products []domain.Product, q domain.ProductQuery, linkBase string) domain.PagedResult {
	q = q.Normalized()

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q.Filter.Match(p) {
			matched = append(matched, p)
		}
	}

	switch q.Sort {
	case domain.SortAsc:
		slices.SortStableFunc(matched, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case domain.SortDesc:
		slices.SortStableFunc(matched, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	}

	total := len(matched)
	totalPages := total / q.Limit
	if total%q.Limit != 0 {
		totalPages++
	}

	// (page-1)*limit is only computed when it cannot exceed total.
	start := total
	if q.Page-1 <= total/q.Limit {
		start = min((q.Page-1)*q.Limit, total)
	}
	end := total
	if total-start > q.Limit {
		end = start + q.Limit
	}

	result := domain.PagedResult{
		Docs:        domain.CloneProducts(matched[start:end]),
		TotalDocs:   total,
		Limit:       q.Limit,
		Page:        q.Page,
		TotalPages:  totalPages,
		HasPrevPage: q.Page > 1,
		HasNextPage: q.Page < totalPages,
	}

	if result.HasPrevPage {
		prev := q.Page - 1
		result.PrevPage = &prev
		result.PrevLink = pageLink(linkBase, q, prev)
	}
	if result.HasNextPage {
		next := q.Page + 1
		result.NextPage = &next
		result.NextLink = pageLink(linkBase, q, next)
	}

	return result
}

func pageLink(base string, q domain.ProductQuery, page int) string {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(q.Limit))
	values.Set("page", strconv.Itoa(page))
	if q.Filter != nil {
		values.Set("query", q.Filter.Raw)
	}
	if q.Sort != domain.SortNone {
		values.Set("sort", string(q.Sort))
	}

	return base + "?" + values.Encode()
}
