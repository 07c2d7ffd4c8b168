package repositories

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type Pagination struct {
	Page  int `json:"page"  query:"page"`
	Limit int `json:"limit" query:"limit"`
}

// Normalize clamps to page >= 1 and 1 <= limit <= MaxLimit.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

func NewPage[T any](data []T, p Pagination, total int64) Page[T] {
	p = p.Normalize()
	if data == nil {
		data = []T{}
	}

	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Page[T]{
		Data: data,
		Pagination: PageInfo{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    p.Page < totalPages,
		},
	}
}

// paginate slices an already ordered in-memory result.
func paginate[T any](items []T, p Pagination) Page[T] {
	p = p.Normalize()
	total := len(items)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	return NewPage(append([]T(nil), items[start:end]...), p, int64(total))
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
