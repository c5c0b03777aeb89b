package domain

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSort(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

type FilterField string

const (
	FilterCategory FilterField = "category"
	FilterStatus   FilterField = "status"
)

// Filter is a single field/value equality predicate. Raw keeps the text it was
// parsed from so it can be echoed back into navigation links.
type Filter struct {
	Field FilterField
	Value string
	Raw   string
}

// ParseFilter reads the "field:value" form. It returns nil for empty input.
// Unrecognized fields are kept (so links round-trip) but match everything.
func ParseFilter(s string) *Filter {
	if s == "" {
		return nil
	}

	field, value, _ := strings.Cut(s, ":")

	return &Filter{
		Field: FilterField(field),
		Value: value,
		Raw:   s,
	}
}

func (f *Filter) Match(p Product) bool {
	if f == nil {
		return true
	}

	switch f.Field {
	case FilterCategory:
		return p.Category == f.Value
	case FilterStatus:
		return p.Status == (f.Value == "true")
	default:
		return true
	}
}

type ProductQuery struct {
	Filter *Filter
	Sort   SortOrder
	Page   int
	Limit  int
}

// Normalized applies the default page and limit.
func (q ProductQuery) Normalized() ProductQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

type PagedResult struct {
	Docs        []Product `json:"docs"`
	TotalDocs   int       `json:"totalDocs"`
	Limit       int       `json:"limit"`
	Page        int       `json:"page"`
	TotalPages  int       `json:"totalPages"`
	HasPrevPage bool      `json:"hasPrevPage"`
	HasNextPage bool      `json:"hasNextPage"`
	PrevPage    *int      `json:"prevPage"`
	NextPage    *int      `json:"nextPage"`
	PrevLink    string    `json:"prevLink,omitempty"`
	NextLink    string    `json:"nextLink,omitempty"`
}
