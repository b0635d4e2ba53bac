package models

import "time"

// CommunicationCategory classifies a board item.
type CommunicationCategory string

const (
	CategoryAnnouncement CommunicationCategory = "ANNOUNCEMENT"
	CategoryCircular     CommunicationCategory = "CIRCULAR"
	CategoryMemo         CommunicationCategory = "MEMO"
)

// Valid reports whether c is a known category.
func (c CommunicationCategory) Valid() bool {
	switch c {
	case CategoryAnnouncement, CategoryCircular, CategoryMemo:
		return true
	default:
		return false
	}
}

// RequiresAttachment reports whether items of this category must carry a file reference.
func (c CommunicationCategory) RequiresAttachment() bool {
	return c != CategoryAnnouncement
}

// CommunicationPriority flags urgent items.
type CommunicationPriority string

const (
	PriorityHigh   CommunicationPriority = "HIGH"
	PriorityNormal CommunicationPriority = "NORMAL"
)

// Valid reports whether p is a known priority.
func (p CommunicationPriority) Valid() bool {
	return p == PriorityHigh || p == PriorityNormal
}

// HistoryEntry records one committed edit.
type HistoryEntry struct {
	Date       time.Time `json:"date"`
	Action     string    `json:"action"`
	ModifiedBy string    `json:"modified_by"`
}

// Communication is a circular, memo or announcement published on the board.
type Communication struct {
	ID              string                `db:"id" json:"id"`
	Title           string                `db:"title" json:"title"`
	Content         string                `db:"content" json:"content"`
	Category        CommunicationCategory `db:"category" json:"category"`
	Priority        CommunicationPriority `db:"priority" json:"priority"`
	PublishedByID   string                `db:"published_by_id" json:"published_by_id"`
	PublishedBy     string                `db:"published_by" json:"published_by"`
	PublishedAt     time.Time             `db:"published_at" json:"published_at"`
	AcknowledgedBy  []string              `db:"-" json:"acknowledged_by"`
	TotalRecipients int                   `db:"total_recipients" json:"total_recipients"`
	Attachments     []string              `db:"-" json:"attachments"`
	History         []HistoryEntry        `db:"-" json:"history"`
	TargetRoles     []UserRole            `db:"-" json:"target_roles"`
	TargetUserIDs   []string              `db:"-" json:"target_user_ids"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (c Communication) Clone() Communication {
	out := c
	out.AcknowledgedBy = append([]string{}, c.AcknowledgedBy...)
	out.Attachments = append([]string{}, c.Attachments...)
	out.History = append([]HistoryEntry{}, c.History...)
	out.TargetRoles = append([]UserRole{}, c.TargetRoles...)
	out.TargetUserIDs = append([]string{}, c.TargetUserIDs...)
	return out
}

// HasAcknowledged reports whether viewerID is in the acknowledgement set.
func (c Communication) HasAcknowledged(viewerID string) bool {
	for _, id := range c.AcknowledgedBy {
		if id == viewerID {
			return true
		}
	}
	return false
}

// CommunicationDraft is the editable part of a communication as submitted by an author.
type CommunicationDraft struct {
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	Category        CommunicationCategory `json:"category"`
	Priority        CommunicationPriority `json:"priority"`
	Attachments     []string              `json:"attachments"`
	TargetRoles     []UserRole            `json:"target_roles"`
	TargetUserIDs   []string              `json:"target_user_ids"`
	TotalRecipients int                   `json:"total_recipients"`
}
