package circular

import "github.com/noah-isme/dims-api/internal/models"

// IsAuthor reports whether viewer published item. Authorship is keyed by the
// stable author id; display names are never compared.
func IsAuthor(item models.Communication, viewer models.Viewer) bool {
	return item.PublishedByID != "" && item.PublishedByID == viewer.ID
}

// IsVisible decides whether viewer may see item. Rules are evaluated in
// order: global oversight, authorship, role targeting, user targeting.
func IsVisible(item models.Communication, viewer models.Viewer) bool {
	if viewer.Role == models.RoleSystemAdmin {
		return true
	}
	if IsAuthor(item, viewer) {
		return true
	}
	for _, role := range item.TargetRoles {
		if role == viewer.Role {
			return true
		}
	}
	if viewer.ID == "" {
		return false
	}
	for _, id := range item.TargetUserIDs {
		if id == viewer.ID {
			return true
		}
	}
	return false
}

// VisibleItems filters items down to those visible to viewer, preserving order.
func VisibleItems(items []models.Communication, viewer models.Viewer) []models.Communication {
	out := make([]models.Communication, 0, len(items))
	for _, item := range items {
		if IsVisible(item, viewer) {
			out = append(out, item)
		}
	}
	return out
}

// HasAudience reports whether the item addresses anyone beyond its author.
func HasAudience(item models.Communication) bool {
	return len(item.TargetRoles) > 0 || len(item.TargetUserIDs) > 0
}
