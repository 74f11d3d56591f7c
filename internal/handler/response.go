package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Pagination limits for list endpoints
const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// ResponseHelper builds request contexts and response envelopes
type ResponseHelper struct {
	now func() time.Time
}

// NewResponseHelper creates a new ResponseHelper instance
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{now: time.Now}
}

// PaginationParams is a requested page of a list
type PaginationParams struct {
	Page     int
	PageSize int
}

// PaginationMeta describes the returned page
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// ParsePaginationParams reads page and page_size. ok is false when the
// request asked for neither, in which case the full list is returned.
// Out-of-range values fall back to the defaults.
func (rh *ResponseHelper) ParsePaginationParams(r *http.Request) (params PaginationParams, ok bool) {
	query := r.URL.Query()
	if query.Get("page") == "" && query.Get("page_size") == "" {
		return PaginationParams{}, false
	}

	params = PaginationParams{
		Page:     positiveInt(query.Get("page"), 1, 0),
		PageSize: positiveInt(query.Get("page_size"), DefaultPageSize, MaxPageSize),
	}
	return params, true
}

// positiveInt parses raw, returning fallback for anything that is not a
// positive integer within max (max 0 means unbounded).
func positiveInt(raw string, fallback, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || (max > 0 && n > max) {
		return fallback
	}
	return n
}

// CalculatePaginationMeta calculates pagination metadata
func (rh *ResponseHelper) CalculatePaginationMeta(params PaginationParams, totalItems int) PaginationMeta {
	totalPages := (totalItems + params.PageSize - 1) / params.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
	}
}

// pageOf returns the window of items selected by params.
func pageOf[T any](items []T, params PaginationParams) []T {
	start := min((params.Page-1)*params.PageSize, len(items))
	end := min(start+params.PageSize, len(items))
	return items[start:end]
}

// CreateRequestContext derives a request context bounded by timeout
func (rh *ResponseHelper) CreateRequestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeout)
}

// CreateListResponseData creates response data for list operations with metadata
func (rh *ResponseHelper) CreateListResponseData(items interface{}, count int, additionalData map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"items": items,
		"count": count,
	}
	for key, value := range additionalData {
		data[key] = value
	}
	return data
}

// CreateHealthCheckData creates health check response data
func (rh *ResponseHelper) CreateHealthCheckData(status string, checks map[string]string) map[string]interface{} {
	return map[string]interface{}{
		"timestamp": rh.now().UTC(),
		"service":   "it-asset-tracker",
		"status":    status,
		"checks":    checks,
	}
}
