// Package listutil parses paging and sorting parameters for list endpoints.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// SortParams carries sorting parameters parsed from a request.
// Empty fields mean "not requested" so stored preferences can fill them.
type SortParams struct {
	Column string
	Dir    string // "asc", "desc" or empty
}

// PageInfo carries pagination metadata returned alongside a page.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// Unknown columns and directions are dropped rather than defaulted.
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	var sp SortParams
	if col := q.Get("sort"); slices.Contains(allowedColumns, col) {
		sp.Column = col
	}
	if dir := q.Get("dir"); dir == "asc" || dir == "desc" {
		sp.Dir = dir
	}
	return sp
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: Page clamped to [1, TotalPages]; TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max(1, (total+perPage-1)/perPage)
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Slice returns the rows of items that fall on the page described by p.
// PRE: p was built by NewPageInfo with Total == len(items)
func Slice[T any](items []T, p PageInfo) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
