package circular

import (
	"errors"

	"github.com/noah-isme/dims-api/internal/models"
)

var (
	// ErrAckExempt is returned when the author or a system admin tries to acknowledge.
	ErrAckExempt = errors.New("viewer is exempt from acknowledging this item")
	// ErrNotVisible is returned when the viewer is not part of the item's audience.
	ErrNotVisible = errors.New("item is not visible to viewer")
)

// Acknowledge records viewer's acknowledgement on a copy of item. Repeated
// calls are no-ops and report changed=false. History is never touched.
func Acknowledge(item models.Communication, viewer models.Viewer) (models.Communication, bool, error) {
	if viewer.Role == models.RoleSystemAdmin || IsAuthor(item, viewer) {
		return item, false, ErrAckExempt
	}
	if !IsVisible(item, viewer) {
		return item, false, ErrNotVisible
	}
	if item.HasAcknowledged(viewer.ID) {
		return item, false, nil
	}
	out := item.Clone()
	out.AcknowledgedBy = append(out.AcknowledgedBy, viewer.ID)
	return out, true, nil
}

// Progress returns the acknowledgement counter and its display denominator.
// Announcements carry no acknowledgement progress.
func Progress(item models.Communication) (acknowledged, total int, tracked bool) {
	if item.Category == models.CategoryAnnouncement {
		return 0, 0, false
	}
	return len(item.AcknowledgedBy), item.TotalRecipients, true
}
