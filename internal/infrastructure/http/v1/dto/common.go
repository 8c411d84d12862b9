// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain"
)

// --- List queries ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search   string `form:"search"`
	OrderBy  string `form:"orderBy"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
	FromDate string `form:"fromDate"`
	ToDate   string `form:"toDate"`
}

// ToFilter converts query parameters into a domain list filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.OrderBy = q.OrderBy
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset

	from, to, err := ParseDateRange(q.FromDate, q.ToDate)
	if err != nil {
		return filter, err
	}
	filter.FromDate = from
	filter.ToDate = to
	return filter, nil
}

// ParseDateRange parses optional YYYY-MM-DD bounds into a half-open range.
// The named toDate day is included: the upper bound is the start of the
// following day, matching the end-of-day treatment of asOf parameters.
func ParseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid fromDate, expected YYYY-MM-DD").
				WithDetail("value", fromStr)
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid toDate, expected YYYY-MM-DD").
				WithDetail("value", toStr)
		}
		t = t.Add(24 * time.Hour)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, apperror.NewValidation("fromDate must not be after toDate")
	}
	return from, to, nil
}

// ParseID parses a path or body identifier.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid identifier").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

// ParseMoney parses a decimal string from a request body.
func ParseMoney(field, value string) (types.Money, error) {
	m, err := types.NewMoneyFromString(value)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid decimal value").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return m, nil
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse converts a domain list result.
func NewListResponse[T any](r domain.ListResult[T]) ListResponse {
	return ListResponse{
		Items:      r.Items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
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

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
