// Package page normalises 1-based page requests and slices results.
package page

import "math"

// Unset marks a per-page value the caller did not supply; Clamp replaces it
// with the configured default.
const Unset = math.MinInt

// SizeConfig configures page size normalization.
type SizeConfig struct {
	Default int
	Max     int
}

// DefaultSize matches the REST surface: 10 per page, at most 100.
var DefaultSize = SizeConfig{Default: 10, Max: 100}

// Request is a normalised page request.
type Request struct {
	Page    int
	PerPage int
}

// Result is one page of items plus the totals needed to render pagination.
type Result[T any] struct {
	Items      []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// Clamp applies defaults and limits. page < 1 becomes 1; an Unset perPage
// takes cfg.Default and any other value is forced into [1, cfg.Max].
func Clamp(pageNum, perPage int, cfg SizeConfig) Request {
	if pageNum < 1 {
		pageNum = 1
	}
	if perPage == Unset {
		perPage = cfg.Default
	}
	if cfg.Max > 0 && perPage > cfg.Max {
		perPage = cfg.Max
	}
	if perPage < 1 {
		perPage = 1
	}
	return Request{Page: pageNum, PerPage: perPage}
}

// Slice returns the requested page of items. A page past the end yields an
// empty, non-nil slice.
func Slice[T any](items []T, req Request) Result[T] {
	total := len(items)
	totalPages := (total + req.PerPage - 1) / req.PerPage

	start := total
	if req.Page-1 <= total/req.PerPage {
		start = min((req.Page-1)*req.PerPage, total)
	}
	end := start + req.PerPage
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return Result[T]{
		Items:      out,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages,
	}
}
