package dto

import (
	"time"

	"github.com/noah-isme/dims-api/internal/circular"
	"github.com/noah-isme/dims-api/internal/models"
)

// RotationState is the action-required carousel of a board session.
type RotationState struct {
	Items      []CircularResponse `json:"items"`
	PageIndex  int                `json:"page_index"`
	PageCount  int                `json:"page_count"`
	PageSize   int                `json:"page_size"`
	Total      int                `json:"total"`
	Paused     bool               `json:"paused"`
	IntervalMs int64              `json:"interval_ms"`
}

// OpenItemState is the item currently open in the reader.
type OpenItemState struct {
	Item            CircularDetail     `json:"item"`
	Gate            circular.GateState `json:"gate"`
	MustAcknowledge bool               `json:"must_acknowledge"`
	CanAcknowledge  bool               `json:"can_acknowledge"`
	SuccessFlash    bool               `json:"success_flash"`
}

// ArchiveState is the archive table of a board session.
type ArchiveState struct {
	Filter     circular.ArchiveFilter `json:"filter"`
	Items      []CircularResponse     `json:"items"`
	Pagination models.Pagination      `json:"pagination"`
}

// BoardSnapshot is the full view state returned by every board operation.
type BoardSnapshot struct {
	Viewer    models.Viewer  `json:"viewer"`
	Rotation  RotationState  `json:"rotation"`
	OpenItem  *OpenItemState `json:"open_item,omitempty"`
	Archive   ArchiveState   `json:"archive"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BoardArchiveRequest replaces the archive filters of a board session.
type BoardArchiveRequest struct {
	Category string `json:"category"`
	Search   string `json:"q"`
	Status   string `json:"status"`
	Sort     string `json:"sort"`
}

// BoardOpenRequest opens an item. Without a viewport the gate stays locked
// until the first scroll report.
type BoardOpenRequest struct {
	Viewport *circular.Viewport `json:"viewport,omitempty"`
}

// BoardScrollRequest reports a scroll event inside the reader.
type BoardScrollRequest struct {
	Viewport circular.Viewport `json:"viewport"`
}
