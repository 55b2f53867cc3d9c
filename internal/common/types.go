package common

// PaginationRequest page query parameters
type PaginationRequest struct {
	Page     int `json:"page" form:"page" binding:"omitempty,min=1"` // 1-based
	PageSize int `json:"page_size" form:"page_size" binding:"omitempty,min=1"`
}

// DefaultPagination first page of 20
func DefaultPagination() PaginationRequest {
	return PaginationRequest{
		Page:     1,
		PageSize: 20,
	}
}

// GetPage returns the page, at least 1
func (p PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetOffset row offset for the page
func (p PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// GetPageSize page size with default 20 and cap 100
func (p PaginationRequest) GetPageSize() int {
	if p.PageSize < 1 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// PaginationMeta page metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta builds metadata for req and total
func NewPaginationMeta(req PaginationRequest, total int64) PaginationMeta {
	meta := PaginationMeta{
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Total:    total,
	}
	meta.TotalPages = int((total + int64(meta.PageSize) - 1) / int64(meta.PageSize))
	return meta
}

// ListResponse paged list body
type ListResponse struct {
	Items      any            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// ErrorBody is the only error shape returned to clients.
type ErrorBody struct {
	Error string `json:"error"`
}
