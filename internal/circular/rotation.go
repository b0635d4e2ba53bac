package circular

import (
	"sort"

	"github.com/noah-isme/dims-api/internal/models"
)

// DefaultUnreadPageSize is the number of action-required cards shown at once.
const DefaultUnreadPageSize = 2

// UnreadItems derives the action-required set: visible items the viewer has
// neither acknowledged nor authored, newest first with ids breaking ties.
// System admins carry no obligations and always get an empty set.
func UnreadItems(items []models.Communication, viewer models.Viewer) []models.Communication {
	if viewer.Role == models.RoleSystemAdmin {
		return []models.Communication{}
	}
	out := make([]models.Communication, 0)
	for _, item := range items {
		if !IsVisible(item, viewer) || IsAuthor(item, viewer) || item.HasAcknowledged(viewer.ID) {
			continue
		}
		out = append(out, item)
	}
	SortByPublished(out, SortNewest)
	return out
}

// SortByPublished orders items by publication time, breaking ties by id
// ascending so paging stays stable across recomputation.
func SortByPublished(items []models.Communication, order SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			if order == SortOldest {
				return a.PublishedAt.Before(b.PublishedAt)
			}
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
}

// Rotation is the state of the auto-advancing action-required carousel.
// It is not safe for concurrent use; the owning session serializes access.
type Rotation struct {
	pageSize int
	index    int
	paused   bool
	unread   []models.Communication
}

// NewRotation builds an empty rotation with the given page size.
func NewRotation(pageSize int) *Rotation {
	if pageSize <= 0 {
		pageSize = DefaultUnreadPageSize
	}
	return &Rotation{pageSize: pageSize}
}

// Sync replaces the unread set and clamps the page index into range.
func (r *Rotation) Sync(unread []models.Communication) {
	r.unread = unread
	r.clamp()
}

// PageSize returns the configured number of items per page.
func (r *Rotation) PageSize() int { return r.pageSize }

// PageIndex returns the zero-based current page.
func (r *Rotation) PageIndex() int { return r.index }

// Paused reports whether automatic advance is suspended.
func (r *Rotation) Paused() bool { return r.paused }

// Total returns the size of the unread set.
func (r *Rotation) Total() int { return len(r.unread) }

// PageCount returns the number of pages in the unread set.
func (r *Rotation) PageCount() int {
	return (len(r.unread) + r.pageSize - 1) / r.pageSize
}

// Page returns the items on the current page.
func (r *Rotation) Page() []models.Communication {
	start := r.index * r.pageSize
	if start >= len(r.unread) {
		return []models.Communication{}
	}
	end := start + r.pageSize
	if end > len(r.unread) {
		end = len(r.unread)
	}
	return r.unread[start:end]
}

// OnTick advances one page unless suspended or there is nothing to rotate.
// It reports whether the page changed.
func (r *Rotation) OnTick() bool {
	if r.paused {
		return false
	}
	return r.step(1)
}

// Next moves forward one page, wrapping around.
func (r *Rotation) Next() bool { return r.step(1) }

// Prev moves back one page, wrapping around.
func (r *Rotation) Prev() bool { return r.step(-1) }

// OnHoverEnter suspends automatic advance while the section has the pointer or focus.
func (r *Rotation) OnHoverEnter() { r.paused = true }

// OnHoverLeave resumes automatic advance.
func (r *Rotation) OnHoverLeave() { r.paused = false }

func (r *Rotation) step(delta int) bool {
	count := r.PageCount()
	if count <= 1 {
		r.clamp()
		return false
	}
	r.index = ((r.index+delta)%count + count) % count
	return true
}

func (r *Rotation) clamp() {
	count := r.PageCount()
	if count == 0 {
		r.index = 0
		return
	}
	if r.index >= count {
		r.index = count - 1
	}
	if r.index < 0 {
		r.index = 0
	}
}
