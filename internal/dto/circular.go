package dto

import (
	"time"

	"github.com/noah-isme/dims-api/internal/models"
)

// ProgressResponse is the read counter shown on circulars and memos.
type ProgressResponse struct {
	Acknowledged int `json:"acknowledged"`
	Total        int `json:"total"`
}

// CircularResponse decorates a communication for one viewer.
type CircularResponse struct {
	models.Communication
	Progress        *ProgressResponse `json:"progress,omitempty"`
	PublishedAgo    string            `json:"published_ago"`
	IsNew           bool              `json:"is_new"`
	Acknowledged    bool              `json:"acknowledged"`
	MustAcknowledge bool              `json:"must_acknowledge"`
	CanEdit         bool              `json:"can_edit"`
}

// TargetUser is a resolved individual-target chip.
type TargetUser struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Role models.UserRole `json:"role"`
}

// CircularDetail adds the resolved audience to a single item.
type CircularDetail struct {
	CircularResponse
	TargetUsers []TargetUser `json:"target_users"`
}

// ArchiveQuery holds the archive list query parameters.
type ArchiveQuery struct {
	Category string `form:"category"`
	Search   string `form:"q"`
	Status   string `form:"status"`
	Sort     string `form:"sort"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CircularStats summarises the board for one viewer.
type CircularStats struct {
	Visible          int            `json:"visible"`
	Unread           int            `json:"unread"`
	UnreadHigh       int            `json:"unread_high_priority"`
	ByCategory       map[string]int `json:"by_category"`
	PendingCirculars int            `json:"pending_circulars"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// Receipt statuses.
const (
	ReceiptAcknowledged = "ACKNOWLEDGED"
	ReceiptPending      = "PENDING"
)

// Receipt is one row of the read-receipt roster.
type Receipt struct {
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Role       models.UserRole `json:"role"`
	Unit       string          `json:"unit"`
	Status     string          `json:"status"`
	InAudience bool            `json:"in_audience"`
}

// ReceiptRoster lists who has and has not acknowledged an item.
type ReceiptRoster struct {
	CircularID        string    `json:"circular_id"`
	Title             string    `json:"title"`
	Category          string    `json:"category"`
	TotalRecipients   int       `json:"total_recipients"`
	AudienceSize      int       `json:"audience_size"`
	AcknowledgedCount int       `json:"acknowledged_count"`
	Receipts          []Receipt `json:"receipts"`
}
