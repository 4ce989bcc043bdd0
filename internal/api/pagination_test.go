package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		want   PaginationParams
		paging bool
	}{
		{"", PaginationParams{}, false},
		{"?page=2&limit=10", PaginationParams{Page: 2, Limit: 10, Offset: 10}, true},
		{"?limit=10", PaginationParams{Page: 1, Limit: 10, Offset: 0}, true},
		{"?page=3", PaginationParams{Page: 3, Limit: 500, Offset: 1000}, true},
		{"?page=-1&limit=99999", PaginationParams{Page: 1, Limit: 5000, Offset: 0}, true},
		{"?page=x&limit=y", PaginationParams{Page: 1, Limit: 500, Offset: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/results"+tt.query, nil)
			got, ok := ParsePagination(r, defaultPageLimit, maxPageLimit)
			assert.Equal(t, tt.paging, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginationBoundsAndMeta(t *testing.T) {
	p := PaginationParams{Page: 2, Limit: 2, Offset: 2}

	lo, hi := p.Bounds(5)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 2, Total: 5, TotalPages: 3, HasMore: true}, p.Meta(5))

	lo, hi = p.Bounds(1)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 1, hi)

	empty := PaginationParams{Page: 1, Limit: 10}.Meta(0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasMore)
}

func TestGetResults_Paginated(t *testing.T) {
	env := setupTestServer(t, true)

	w := env.do(t, http.MethodGet, "/api/results?limit=3&page=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		rowsResponse
		Pagination PaginationMeta `json:"pagination"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, []string{"d@x.com"}, emails(resp.Rows))
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 3, Total: 4, TotalPages: 2, HasMore: false}, resp.Pagination)

	w = env.do(t, http.MethodGet, "/api/results")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "pagination")
}

func TestGetEvents_PagePastEnd(t *testing.T) {
	env := setupTestServer(t, true)

	w := env.do(t, http.MethodGet, "/api/events?page=9&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":5`)
	assert.Contains(t, w.Body.String(), `"rows":[]`)
	assert.Contains(t, w.Body.String(), `"has_more":false`)
}
