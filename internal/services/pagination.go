package services

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	// MaxPage bounds deep paging so Skip stays small and positive
	MaxPage = 10000
)

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page and limit to sane values
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit}
}

// Skip is the number of items before this page
func (p Page) Skip() int {
	return (p.Page - 1) * p.Limit
}
