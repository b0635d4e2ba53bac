package circular

import "github.com/noah-isme/dims-api/internal/models"

// CanAuthor reports whether viewer may publish new items.
func CanAuthor(viewer models.Viewer) bool {
	return viewer.Role == models.RoleSystemAdmin || viewer.Role == models.RoleDivisionAdmin
}

// CanEdit reports whether viewer may revise item. System admins edit
// anything; division admins only what they authored.
func CanEdit(item models.Communication, viewer models.Viewer) bool {
	switch viewer.Role {
	case models.RoleSystemAdmin:
		return true
	case models.RoleDivisionAdmin:
		return IsAuthor(item, viewer)
	default:
		return false
	}
}

// MustAcknowledge reports whether viewer carries an acknowledgement
// obligation for item. Authors and system admins never do.
func MustAcknowledge(item models.Communication, viewer models.Viewer) bool {
	if viewer.Role == models.RoleSystemAdmin || IsAuthor(item, viewer) {
		return false
	}
	return IsVisible(item, viewer)
}
