package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is the query-string shape shared by list endpoints.
type Page struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

// Normalize clamps page and page_size into their allowed ranges.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Limit() int {
	return p.Normalize().PageSize
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Info describes the returned page.
type Info struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func BuildInfo(p Page, total int64) Info {
	n := p.Normalize()
	return Info{Page: n.Page, PageSize: n.PageSize, Total: total}
}
