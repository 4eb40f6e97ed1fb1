package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params carries offset pagination extracted from a request.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the row offset for SQL queries.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromRequest parses page and limit query parameters, clamping out-of-range
// values rather than rejecting them.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Meta describes a paginated result set in responses.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewMeta computes paging metadata for a total row count.
func NewMeta(p Params, total int64) Meta {
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
