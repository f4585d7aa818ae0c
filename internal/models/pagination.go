package models

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination describes paging metadata returned by list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalises page and size and records the total.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Offset returns the index of the first item on the page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Bounds returns the half-open [start, end) slice range of the page, clamped to the total.
func (p *Pagination) Bounds() (int, int) {
	start := min(p.Offset(), p.TotalCount)
	end := min(start+p.PageSize, p.TotalCount)
	return start, end
}
