package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination carries page-number pagination parameters from the request.
type Pagination struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// PageInfo describes the position of a page within the full result set.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Normalize clamps the parameters into their valid ranges: page >= 1,
// 1 <= limit <= MaxLimit, with defaults for zero values.
func (p Pagination) Normalize() Pagination {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset returns the row offset for the normalized page.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// BuildPageInfo derives the page envelope from the total item count.
// TotalPages is zero for an empty result set.
func BuildPageInfo(p Pagination, totalItems int64) PageInfo {
	n := p.Normalize()

	totalPages := 0
	if totalItems > 0 {
		totalPages = int((totalItems + int64(n.Limit) - 1) / int64(n.Limit))
	}

	return PageInfo{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    totalPages > 0 && n.Page < totalPages,
		HasPrev:    n.Page > 1 && totalPages > 0,
	}
}
