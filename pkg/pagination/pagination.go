package pagination

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps the page size a client can ask for.
const MaxPerPage = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page of 20.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: 20}
}

// FromRequest extracts page and per_page from the query string. Values that
// are missing, not numbers or out of range fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Result is one page of items.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult wraps an already sliced page.
func NewResult[T any](items []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.PerPage
	if totalCount%params.PerPage > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// Slice pages through an in-memory list. A page past the end is empty.
func Slice[T any](all []T, params Params) Result[T] {
	start := min(params.Offset, len(all))
	end := min(start+params.PerPage, len(all))
	return NewResult(all[start:end:end], len(all), params)
}
