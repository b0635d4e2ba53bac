package circular

import (
	"strings"

	"github.com/noah-isme/dims-api/internal/models"
)

// DefaultArchivePageSize is the number of rows per archive page.
const DefaultArchivePageSize = 10

// CategoryAll disables category filtering.
const CategoryAll = "ALL"

// StatusFilter narrows the archive by the viewer's acknowledgement state.
type StatusFilter string

const (
	StatusAll          StatusFilter = "ALL"
	StatusPending      StatusFilter = "PENDING"
	StatusAcknowledged StatusFilter = "ACKNOWLEDGED"
)

// SortOrder orders items by publication time.
type SortOrder string

const (
	SortNewest SortOrder = "NEWEST"
	SortOldest SortOrder = "OLDEST"
)

// ArchiveFilter carries every archive filter input.
type ArchiveFilter struct {
	Category string       `json:"category" form:"category"`
	Search   string       `json:"q" form:"q"`
	Status   StatusFilter `json:"status" form:"status"`
	Sort     SortOrder    `json:"sort" form:"sort"`
}

// Normalize upper-cases enum inputs and fills blanks with their defaults.
// Search is kept verbatim; only the empty string matches everything.
// Unknown values fall back to the default rather than failing the query.
func (f ArchiveFilter) Normalize() ArchiveFilter {
	out := ArchiveFilter{
		Category: strings.ToUpper(strings.TrimSpace(f.Category)),
		Search:   f.Search,
		Status:   StatusFilter(strings.ToUpper(strings.TrimSpace(string(f.Status)))),
		Sort:     SortOrder(strings.ToUpper(strings.TrimSpace(string(f.Sort)))),
	}
	if out.Category == "" || (out.Category != CategoryAll && !models.CommunicationCategory(out.Category).Valid()) {
		out.Category = CategoryAll
	}
	switch out.Status {
	case StatusPending, StatusAcknowledged:
	default:
		out.Status = StatusAll
	}
	if out.Sort != SortOldest {
		out.Sort = SortNewest
	}
	return out
}

// Query applies category, search and status filters to the visible set and
// sorts the result. The input slice is not modified.
func Query(items []models.Communication, viewerID string, filter ArchiveFilter) []models.Communication {
	filter = filter.Normalize()
	needle := strings.ToLower(filter.Search)

	out := make([]models.Communication, 0, len(items))
	for _, item := range items {
		if filter.Category != CategoryAll && string(item.Category) != filter.Category {
			continue
		}
		if needle != "" && !matchesSearch(item, needle) {
			continue
		}
		switch filter.Status {
		case StatusPending:
			if item.HasAcknowledged(viewerID) {
				continue
			}
		case StatusAcknowledged:
			if !item.HasAcknowledged(viewerID) {
				continue
			}
		}
		out = append(out, item)
	}

	SortByPublished(out, filter.Sort)
	return out
}

func matchesSearch(item models.Communication, needle string) bool {
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Content), needle) ||
		strings.Contains(strings.ToLower(item.PublishedBy), needle)
}

// Page is one slice of a paginated list with zero-based index.
type Page struct {
	Items      []models.Communication
	Index      int
	Size       int
	TotalCount int
	TotalPages int
}

// Paginate cuts a page out of items. Out-of-range indexes are clamped.
func Paginate(items []models.Communication, index, size int) Page {
	if size <= 0 {
		size = DefaultArchivePageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if index >= pages {
		index = pages - 1
	}
	if index < 0 {
		index = 0
	}

	start := index * size
	end := start + size
	if end > total {
		end = total
	}
	page := Page{Index: index, Size: size, TotalCount: total, TotalPages: pages}
	if start < end {
		page.Items = items[start:end]
	} else {
		page.Items = []models.Communication{}
	}
	return page
}

// ArchiveView holds the archive filter and page cursor of a board session.
type ArchiveView struct {
	filter   ArchiveFilter
	index    int
	pageSize int
	pages    int
}

// NewArchiveView builds a view with default filters positioned on page 0.
func NewArchiveView(pageSize int) *ArchiveView {
	if pageSize <= 0 {
		pageSize = DefaultArchivePageSize
	}
	return &ArchiveView{filter: ArchiveFilter{}.Normalize(), pageSize: pageSize}
}

// Filter returns the active filter.
func (v *ArchiveView) Filter() ArchiveFilter { return v.filter }

// PageIndex returns the zero-based page cursor.
func (v *ArchiveView) PageIndex() int { return v.index }

// SetFilter replaces the filter. Any change resets the cursor to page 0.
func (v *ArchiveView) SetFilter(filter ArchiveFilter) bool {
	filter = filter.Normalize()
	if filter == v.filter {
		return false
	}
	v.filter = filter
	v.index = 0
	return true
}

// Next moves forward one page when there is one.
func (v *ArchiveView) Next() {
	if v.index+1 < v.pages {
		v.index++
	}
}

// Prev moves back one page when there is one.
func (v *ArchiveView) Prev() {
	if v.index > 0 {
		v.index--
	}
}

// Apply runs the query for viewerID and returns the current page, clamping
// the cursor when the result set shrank.
func (v *ArchiveView) Apply(items []models.Communication, viewerID string) Page {
	page := Paginate(Query(items, viewerID, v.filter), v.index, v.pageSize)
	v.index = page.Index
	v.pages = page.TotalPages
	return page
}
