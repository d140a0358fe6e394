package kernel

// PaginationOptions carries page/page-size from transport into repositories.
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalized clamps the options to sane bounds.
func (p PaginationOptions) Normalized() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset is the zero-based item offset for the current page.
func (p PaginationOptions) Offset() int { return (p.Page - 1) * p.PageSize }

// Page describes the position of a result window.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated wraps a page of items with its window metadata.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a Paginated from a full count.
func NewPaginated[T any](items []T, page, pageSize, total int) *Paginated[T] {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   pageSize,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}
