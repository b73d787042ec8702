// Package dto provides request and response types for the library API.
// These types are used by huma to generate OpenAPI documentation.
package dto

import (
	"time"

	"github.com/libraryhub/library-server/internal/domain"
)

// PageResponse is a page of results.
type PageResponse[T any] struct {
	Items         []T   `json:"items" doc:"Items on this page"`
	TotalElements int64 `json:"total_elements" doc:"Matching items across all pages"`
	TotalPages    int   `json:"total_pages" doc:"Number of pages"`
	PageNumber    int   `json:"page_number" doc:"Current page, starting at 1"`
	PageSize      int   `json:"page_size" doc:"Items per page"`
}

// NewPageResponse maps a domain page through fn.
func NewPageResponse[S, T any](p domain.Page[S], fn func(S) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return PageResponse[T]{
		Items:         items,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
	}
}

// PaginationParams defines common pagination query parameters.
type PaginationParams struct {
	Page int `query:"page" default:"1" doc:"Page number, starting at 1"`
	Size int `query:"size" default:"10" doc:"Items per page (at most 100)"`
}

// IDParam is a path parameter for resource IDs.
type IDParam struct {
	ID int64 `path:"id" doc:"Resource identifier"`
}

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// AuditResponse carries creation and modification stamps.
type AuditResponse struct {
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	CreatedBy string    `json:"created_by" doc:"Creating actor"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last modification time"`
	UpdatedBy string    `json:"updated_by" doc:"Last modifying actor"`
}

func auditResponse(a domain.Audit) AuditResponse {
	return AuditResponse(a)
}
