package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    PaginationRequest
		page   int
		size   int
		offset int
	}{
		{"zero value", PaginationRequest{}, 1, 20, 0},
		{"third page", PaginationRequest{Page: 3, PageSize: 10}, 3, 10, 20},
		{"size capped", PaginationRequest{Page: 2, PageSize: 500}, 2, 100, 100},
		{"negative page", PaginationRequest{Page: -4, PageSize: 5}, 1, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.page, tt.req.GetPage())
			assert.Equal(t, tt.size, tt.req.GetPageSize())
			assert.Equal(t, tt.offset, tt.req.GetOffset())
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(PaginationRequest{Page: 2, PageSize: 20}, 41)
	assert.Equal(t, PaginationMeta{Page: 2, PageSize: 20, Total: 41, TotalPages: 3}, meta)

	assert.Zero(t, NewPaginationMeta(DefaultPagination(), 0).TotalPages)
}
