package circular

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/models"
)

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestValidateCollectsEveryFailure(t *testing.T) {
	draft := NormalizeDraft(models.CommunicationDraft{
		Title:    "   ",
		Content:  "",
		Category: "circular",
	})

	err := Validate(draft)
	assert.Equal(t, []string{"title", "content", "attachments", "audience"}, violationFields(t, err))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "attachments: circulars and memos need at least one attachment")
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	draft := NormalizeDraft(models.CommunicationDraft{
		Title:       "t",
		Content:     "c",
		Category:    "newsletter",
		Priority:    "urgent",
		TargetRoles: []models.UserRole{"janitor"},
	})

	fields := violationFields(t, Validate(draft))
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "target_roles")
}

func TestScenarioAttachmentRuleThenSuccess(t *testing.T) {
	draft := models.CommunicationDraft{
		Title:       "Safety drill",
		Content:     "Assemble at the east gate.",
		Category:    models.CategoryCircular,
		Attachments: []string{},
		TargetRoles: []models.UserRole{models.RoleStaff},
	}

	fields := violationFields(t, Validate(NormalizeDraft(draft)))
	assert.Equal(t, []string{"attachments"}, fields)

	draft.Attachments = []string{"f.pdf"}
	normalized := NormalizeDraft(draft)
	require.NoError(t, Validate(normalized))

	created := NewCommunication(normalized, admin, "new-1", baseDay)
	assert.Equal(t, "new-1", created.ID)
	assert.Equal(t, admin.ID, created.PublishedByID)
	assert.Equal(t, baseDay, created.PublishedAt)
	assert.Empty(t, created.AcknowledgedBy)
	assert.Empty(t, created.History)
	assert.Equal(t, models.PriorityNormal, created.Priority)
}

func TestAnnouncementNeedsNoAttachment(t *testing.T) {
	draft := NormalizeDraft(models.CommunicationDraft{
		Title:         "Welcome",
		Content:       "Hello everyone",
		Category:      models.CategoryAnnouncement,
		TargetUserIDs: []string{"u2"},
	})
	assert.NoError(t, Validate(draft))
}

func draftFrom(c models.Communication) models.CommunicationDraft {
	return models.CommunicationDraft{
		Title:           c.Title,
		Content:         c.Content,
		Category:        c.Category,
		Priority:        c.Priority,
		Attachments:     append([]string{}, c.Attachments...),
		TargetRoles:     append([]models.UserRole{}, c.TargetRoles...),
		TargetUserIDs:   append([]string{}, c.TargetUserIDs...),
		TotalRecipients: c.TotalRecipients,
	}
}

func TestScenarioPriorityEditResetsAcks(t *testing.T) {
	existing := item("c1", 3, withAcks("u2", "u3"))
	draft := draftFrom(existing)
	draft.Priority = models.PriorityHigh

	revised := Revise(existing, NormalizeDraft(draft), admin, baseDay)
	require.Len(t, revised.History, 1)
	assert.Equal(t, "Updated: Priority", revised.History[0].Action)
	assert.Equal(t, admin.Name, revised.History[0].ModifiedBy)
	assert.Empty(t, revised.AcknowledgedBy)
	assert.Equal(t, []string{"u2", "u3"}, existing.AcknowledgedBy, "input must not be mutated")
	assert.Equal(t, existing.PublishedAt, revised.PublishedAt)
	assert.Equal(t, existing.PublishedByID, revised.PublishedByID)
}

func TestReviseWithoutChanges(t *testing.T) {
	existing := item("c1", 3, withRoles(models.RoleStaff, models.RoleFaculty), withAcks("u2"))
	draft := draftFrom(existing)
	draft.TargetRoles = []models.UserRole{models.RoleFaculty, models.RoleStaff}

	revised := Revise(existing, NormalizeDraft(draft), admin, baseDay)
	require.Len(t, revised.History, 1)
	assert.Equal(t, NoChangeAction, revised.History[0].Action)
	assert.Empty(t, revised.AcknowledgedBy)
}

func TestReviseListsChangedFieldsInOrder(t *testing.T) {
	existing := item("c1", 3)
	draft := draftFrom(existing)
	draft.Title = "New title"
	draft.Attachments = []string{"other.pdf"}
	draft.TargetUserIDs = []string{"u4"}

	revised := Revise(existing, NormalizeDraft(draft), root, baseDay)
	assert.Equal(t, "Updated: Title, Attachments, Target Users", revised.History[0].Action)
}

func TestReviseHistoryGrowsWithNonDecreasingDates(t *testing.T) {
	current := item("c1", 3)
	stamps := []time.Time{baseDay, baseDay.Add(time.Hour), baseDay.Add(30 * time.Minute)}

	for i, stamp := range stamps {
		draft := draftFrom(current)
		draft.Content = current.Content + "!"
		next := Revise(current, NormalizeDraft(draft), admin, stamp)
		require.Len(t, next.History, i+1)
		if i > 0 {
			assert.False(t, next.History[i].Date.Before(next.History[i-1].Date))
		}
		current = next
	}
}
