package circular

import (
	"time"

	"github.com/noah-isme/dims-api/internal/models"
)

var (
	root    = models.Viewer{ID: "u0", Name: "System Root", Role: models.RoleSystemAdmin}
	admin   = models.Viewer{ID: "u1", Name: "Admin User", Role: models.RoleDivisionAdmin}
	alice   = models.Viewer{ID: "u2", Name: "Alice Johnson", Role: models.RoleStaff}
	bob     = models.Viewer{ID: "u3", Name: "Bob Williams", Role: models.RoleStaff}
	carol   = models.Viewer{ID: "u4", Name: "Dr. Carol White", Role: models.RoleFaculty}
	frank   = models.Viewer{ID: "u7", Name: "Frank Blue", Role: models.RoleDivisionAdmin}
	baseDay = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func item(id string, daysAgo int, opts ...func(*models.Communication)) models.Communication {
	c := models.Communication{
		ID:              id,
		Title:           "Notice " + id,
		Content:         "Body of " + id,
		Category:        models.CategoryCircular,
		Priority:        models.PriorityNormal,
		PublishedByID:   admin.ID,
		PublishedBy:     admin.Name,
		PublishedAt:     baseDay.AddDate(0, 0, -daysAgo),
		AcknowledgedBy:  []string{},
		TotalRecipients: 10,
		Attachments:     []string{id + ".pdf"},
		History:         []models.HistoryEntry{},
		TargetRoles:     []models.UserRole{models.RoleStaff},
		TargetUserIDs:   []string{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func withRoles(roles ...models.UserRole) func(*models.Communication) {
	return func(c *models.Communication) { c.TargetRoles = roles }
}

func withUsers(ids ...string) func(*models.Communication) {
	return func(c *models.Communication) { c.TargetUserIDs = ids }
}

func withAuthor(v models.Viewer) func(*models.Communication) {
	return func(c *models.Communication) {
		c.PublishedByID = v.ID
		c.PublishedBy = v.Name
	}
}

func withAcks(ids ...string) func(*models.Communication) {
	return func(c *models.Communication) { c.AcknowledgedBy = ids }
}

func withCategory(cat models.CommunicationCategory) func(*models.Communication) {
	return func(c *models.Communication) { c.Category = cat }
}

func ids(items []models.Communication) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
