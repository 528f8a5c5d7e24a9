// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"ledger/internal/core/id"
	"ledger/internal/domain"
)

// --- Pagination ---

// PaginationRequest contains limit/offset paging parameters.
type PaginationRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ListFilter converts the request to a domain list filter.
func (p PaginationRequest) ListFilter() domain.ListFilter {
	return domain.ListFilter{Limit: p.Limit, Offset: p.Offset}
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult converts a domain list result, mapping each item.
func FromListResult[S, T any](r domain.ListResult[S], conv func(*S) T) ListResponse[T] {
	items := make([]T, len(r.Items))
	for i := range r.Items {
		items[i] = conv(&r.Items[i])
	}
	return ListResponse[T]{Items: items, TotalCount: r.TotalCount, Limit: r.Limit, Offset: r.Offset}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
