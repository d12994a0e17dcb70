package listutil

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want PageParams
	}{
		{"defaults", url.Values{}, PageParams{Page: 1, PerPage: DefaultPerPage}},
		{"valid", url.Values{"page": {"3"}, "per_page": {"50"}}, PageParams{Page: 3, PerPage: 50}},
		{"per_page not offered", url.Values{"per_page": {"25"}}, PageParams{Page: 1, PerPage: DefaultPerPage}},
		{"negative page", url.Values{"page": {"-1"}}, PageParams{Page: 1, PerPage: DefaultPerPage}},
		{"garbage", url.Values{"page": {"x"}, "per_page": {"y"}}, PageParams{Page: 1, PerPage: DefaultPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePageParams(tt.q); got != tt.want {
				t.Errorf("ParsePageParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	cols := []string{"amount", "payment_date"}
	tests := []struct {
		name string
		q    url.Values
		want SortParams
	}{
		{"valid", url.Values{"sort": {"amount"}, "dir": {"desc"}}, SortParams{Column: "amount", Dir: "desc"}},
		{"unknown column dropped", url.Values{"sort": {"password"}, "dir": {"asc"}}, SortParams{Dir: "asc"}},
		{"bad dir dropped", url.Values{"sort": {"amount"}, "dir": {"sideways"}}, SortParams{Column: "amount"}},
		{"empty", url.Values{}, SortParams{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSortParams(tt.q, cols); got != tt.want {
				t.Errorf("ParseSortParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		want                 PageInfo
	}{
		{"first page", 1, 20, 45, PageInfo{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}},
		{"clamped past end", 9, 20, 45, PageInfo{Page: 3, PerPage: 20, Total: 45, TotalPages: 3}},
		{"empty", 1, 20, 0, PageInfo{Page: 1, PerPage: 20, Total: 0, TotalPages: 1}},
		{"zero per page", 1, 0, 5, PageInfo{Page: 1, PerPage: DefaultPerPage, Total: 5, TotalPages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPageInfo(tt.page, tt.perPage, tt.total); got != tt.want {
				t.Errorf("NewPageInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Slice(items, NewPageInfo(2, 2, len(items))); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("page 2 = %v", got)
	}
	if got := Slice(items, NewPageInfo(3, 2, len(items))); !reflect.DeepEqual(got, []int{5}) {
		t.Errorf("page 3 = %v", got)
	}
	if got := Slice([]int{}, NewPageInfo(1, 10, 0)); len(got) != 0 {
		t.Errorf("empty = %v", got)
	}
}
