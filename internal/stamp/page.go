package stamp

import (
	"fmt"
	"strings"
)

// SortField names a sortable record attribute. Values match the JSON names.
type SortField string

const (
	SortByID       SortField = "id"
	SortByUserID   SortField = "userId"
	SortByCheckIn  SortField = "checkInMillis"
	SortByCheckOut SortField = "checkOutMillis"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// Sort orders a page of records. Ties are broken by id in the same
// direction; a nil check-out sorts as the smallest value.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort lists the most recent check-in first.
var DefaultSort = Sort{Field: SortByCheckIn, Desc: true}

func (s Sort) String() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return string(s.Field) + "," + dir
}

// ParseSort parses "field" or "field,asc|desc". An empty string yields DefaultSort.
func ParseSort(v string) (Sort, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultSort, nil
	}
	name, dir, _ := strings.Cut(v, ",")
	s := Sort{Field: SortField(strings.TrimSpace(name))}
	switch s.Field {
	case SortByID, SortByUserID, SortByCheckIn, SortByCheckOut:
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", name)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		s.Desc = true
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return s, nil
}

// PageRequest selects one zero-based page of a user's records.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Normalize fills defaults and clamps the size to MaxPageSize.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Sort.Field == "" {
		p.Sort = DefaultSort
	}
	return p
}

// Offset is the number of records skipped before this page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a user's records plus the total count.
type Page struct {
	Records []StampRecord
	Page    int
	Size    int
	Total   int64
}

// TotalPages returns the number of pages of Size records.
func (p Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}
