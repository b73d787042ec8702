package domain

import "math"

// PageRequest selects a 1-based page of a result set.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is one bounded slice of an ordered result set.
type Page[T any] struct {
	Items         []T
	TotalElements int64
	TotalPages    int
	PageNumber    int
	PageSize      int
}

// NewPage builds a page, computing TotalPages as ceil(total/size).
// Items is never nil.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 && total > 0 {
		pages = int(math.Ceil(float64(total) / float64(req.Size)))
	}
	return Page[T]{
		Items:         items,
		TotalElements: total,
		TotalPages:    pages,
		PageNumber:    req.Page,
		PageSize:      req.Size,
	}
}
