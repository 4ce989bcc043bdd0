package api

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 500
	maxPageLimit     = 5000
)

// PaginationParams holds parsed pagination values from query params.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationMeta contains pagination metadata for the response.
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// ParsePagination extracts page and limit from query params with defaults.
// The second result is false when the request asked for neither, in which
// case the caller returns every row.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (PaginationParams, bool) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("limit") == "" {
		return PaginationParams{}, false
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, true
}

// Bounds returns the [lo, hi) slice bounds of the page within total rows.
func (p PaginationParams) Bounds(total int) (int, int) {
	lo := p.Offset
	if lo > total {
		lo = total
	}
	hi := lo + p.Limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

// Meta builds the response metadata for a page over total rows.
func (p PaginationParams) Meta(total int) PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	if totalPages < 1 {
		totalPages = 1
	}
	return PaginationMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    p.Page < totalPages,
	}
}

// pageOf slices rows per the request's page and limit, adding the
// pagination metadata to body when paging was requested.
func pageOf[T any](r *http.Request, rows []T, body map[string]interface{}) []T {
	p, ok := ParsePagination(r, defaultPageLimit, maxPageLimit)
	if !ok {
		return rows
	}
	lo, hi := p.Bounds(len(rows))
	body["pagination"] = p.Meta(len(rows))
	return rows[lo:hi]
}
