package circular

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/dims-api/internal/models"
)

// Validation rule names reported in Violation.Rule.
const (
	RuleRequired            = "required"
	RuleOneOf               = "oneof"
	RuleAttachmentsRequired = "attachments_required"
	RuleAudienceRequired    = "audience_required"
)

// Violation is one failed submit rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError carries every failed rule of a submit.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Details flattens the violations for error envelopes.
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.String())
	}
	return out
}

type draftRules struct {
	Title         string   `json:"title" validate:"required"`
	Content       string   `json:"content" validate:"required"`
	Category      string   `json:"category" validate:"oneof=ANNOUNCEMENT CIRCULAR MEMO"`
	Priority      string   `json:"priority" validate:"oneof=HIGH NORMAL"`
	Attachments   []string `json:"attachments"`
	TargetRoles   []string `json:"target_roles" validate:"dive,oneof=SYSTEM_ADMIN DIVISION_ADMIN STAFF FACULTY"`
	TargetUserIDs []string `json:"target_user_ids" validate:"dive,required"`
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateDraftRules, draftRules{})
	return v
}

func validateDraftRules(sl validator.StructLevel) {
	d := sl.Current().Interface().(draftRules)
	if d.Category != string(models.CategoryAnnouncement) && len(d.Attachments) == 0 {
		sl.ReportError(d.Attachments, "attachments", "Attachments", RuleAttachmentsRequired, "")
	}
	if len(d.TargetRoles) == 0 && len(d.TargetUserIDs) == 0 {
		sl.ReportError(d.TargetRoles, "audience", "TargetRoles", RuleAudienceRequired, "")
	}
}

var fieldOrder = map[string]int{
	"title":           0,
	"content":         1,
	"category":        2,
	"priority":        3,
	"attachments":     4,
	"audience":        5,
	"target_roles":    6,
	"target_user_ids": 7,
}

// NormalizeDraft trims text, upper-cases enums, drops blank attachments and
// de-duplicates the audience. An empty priority defaults to NORMAL.
func NormalizeDraft(draft models.CommunicationDraft) models.CommunicationDraft {
	out := models.CommunicationDraft{
		Title:           strings.TrimSpace(draft.Title),
		Content:         strings.TrimSpace(draft.Content),
		Category:        models.CommunicationCategory(strings.ToUpper(strings.TrimSpace(string(draft.Category)))),
		Priority:        models.CommunicationPriority(strings.ToUpper(strings.TrimSpace(string(draft.Priority)))),
		TotalRecipients: draft.TotalRecipients,
		Attachments:     []string{},
		TargetRoles:     []models.UserRole{},
		TargetUserIDs:   []string{},
	}
	if out.Priority == "" {
		out.Priority = models.PriorityNormal
	}
	if out.TotalRecipients < 0 {
		out.TotalRecipients = 0
	}
	for _, name := range draft.Attachments {
		if name = strings.TrimSpace(name); name != "" {
			out.Attachments = append(out.Attachments, name)
		}
	}
	seenRoles := make(map[models.UserRole]struct{}, len(draft.TargetRoles))
	for _, role := range draft.TargetRoles {
		role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(role))))
		if _, ok := seenRoles[role]; ok || role == "" {
			continue
		}
		seenRoles[role] = struct{}{}
		out.TargetRoles = append(out.TargetRoles, role)
	}
	seenUsers := make(map[string]struct{}, len(draft.TargetUserIDs))
	for _, id := range draft.TargetUserIDs {
		id = strings.TrimSpace(id)
		if _, ok := seenUsers[id]; ok || id == "" {
			continue
		}
		seenUsers[id] = struct{}{}
		out.TargetUserIDs = append(out.TargetUserIDs, id)
	}
	return out
}

// Validate checks a normalized draft and reports every failing rule at once.
func Validate(draft models.CommunicationDraft) error {
	rules := draftRules{
		Title:         draft.Title,
		Content:       draft.Content,
		Category:      string(draft.Category),
		Priority:      string(draft.Priority),
		Attachments:   draft.Attachments,
		TargetUserIDs: draft.TargetUserIDs,
	}
	for _, role := range draft.TargetRoles {
		rules.TargetRoles = append(rules.TargetRoles, string(role))
	}

	err := draftValidator.Struct(rules)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(fe))
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return fieldOrder[violations[i].Field] < fieldOrder[violations[j].Field]
	})
	return &ValidationError{Violations: violations}
}

func toViolation(fe validator.FieldError) Violation {
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}
	v := Violation{Field: field, Rule: fe.Tag()}
	switch fe.Tag() {
	case RuleRequired:
		v.Message = "must not be empty"
	case RuleOneOf:
		v.Message = fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case RuleAttachmentsRequired:
		v.Message = "circulars and memos need at least one attachment"
	case RuleAudienceRequired:
		v.Message = "select at least one role or person"
	default:
		v.Message = "is invalid"
	}
	return v
}

// NewCommunication builds a fresh item from a validated draft.
func NewCommunication(draft models.CommunicationDraft, author models.Viewer, id string, now time.Time) models.Communication {
	return models.Communication{
		ID:              id,
		Title:           draft.Title,
		Content:         draft.Content,
		Category:        draft.Category,
		Priority:        draft.Priority,
		PublishedByID:   author.ID,
		PublishedBy:     author.Name,
		PublishedAt:     now.UTC(),
		AcknowledgedBy:  []string{},
		TotalRecipients: draft.TotalRecipients,
		Attachments:     append([]string{}, draft.Attachments...),
		History:         []models.HistoryEntry{},
		TargetRoles:     append([]models.UserRole{}, draft.TargetRoles...),
		TargetUserIDs:   append([]string{}, draft.TargetUserIDs...),
	}
}

// NoChangeAction is the history action of an edit that changed nothing.
const NoChangeAction = "Edited without substantive changes"

// ChangedFields lists, in display order, the editable fields that differ
// between existing and draft. Audience lists compare as sets, attachments
// as ordered lists.
func ChangedFields(existing models.Communication, draft models.CommunicationDraft) []string {
	changed := make([]string, 0, 7)
	if existing.Title != draft.Title {
		changed = append(changed, "Title")
	}
	if existing.Content != draft.Content {
		changed = append(changed, "Content")
	}
	if existing.Priority != draft.Priority {
		changed = append(changed, "Priority")
	}
	if existing.Category != draft.Category {
		changed = append(changed, "Category")
	}
	if !equalOrdered(existing.Attachments, draft.Attachments) {
		changed = append(changed, "Attachments")
	}
	if !equalSet(rolesToStrings(existing.TargetRoles), rolesToStrings(draft.TargetRoles)) {
		changed = append(changed, "Target Roles")
	}
	if !equalSet(existing.TargetUserIDs, draft.TargetUserIDs) {
		changed = append(changed, "Target Users")
	}
	return changed
}

// Revise applies a validated draft to existing, appends exactly one history
// entry and clears every acknowledgement. Identity, author, publication
// time and the recipient counter are kept.
func Revise(existing models.Communication, draft models.CommunicationDraft, editor models.Viewer, now time.Time) models.Communication {
	changed := ChangedFields(existing, draft)
	action := NoChangeAction
	if len(changed) > 0 {
		action = "Updated: " + strings.Join(changed, ", ")
	}

	stamp := now.UTC()
	if n := len(existing.History); n > 0 && stamp.Before(existing.History[n-1].Date) {
		stamp = existing.History[n-1].Date
	}

	out := existing.Clone()
	out.Title = draft.Title
	out.Content = draft.Content
	out.Category = draft.Category
	out.Priority = draft.Priority
	out.Attachments = append([]string{}, draft.Attachments...)
	out.TargetRoles = append([]models.UserRole{}, draft.TargetRoles...)
	out.TargetUserIDs = append([]string{}, draft.TargetUserIDs...)
	out.AcknowledgedBy = []string{}
	out.History = append(out.History, models.HistoryEntry{
		Date:       stamp,
		Action:     action,
		ModifiedBy: editor.Name,
	})
	return out
}

func rolesToStrings(roles []models.UserRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, s := range a {
		left[s] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, s := range b {
		right[s] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for s := range left {
		if _, ok := right[s]; !ok {
			return false
		}
	}
	return true
}
