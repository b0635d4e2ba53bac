package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/circular"
	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/pkg/response"
)

type boardService interface {
	Snapshot(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	Next(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	Prev(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	HoverEnter(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	HoverLeave(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	Open(ctx context.Context, viewer models.Viewer, id string, viewport *circular.Viewport) (*dto.BoardSnapshot, error)
	Scroll(ctx context.Context, viewer models.Viewer, viewport circular.Viewport) (*dto.BoardSnapshot, error)
	CloseItem(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)
	Acknowledge(ctx context.Context, viewer models.Viewer, id string) (*dto.BoardSnapshot, error)
	SetArchiveFilter(ctx context.Context, viewer models.Viewer, req dto.BoardArchiveRequest) (*dto.BoardSnapshot, error)
	ArchivePage(ctx context.Context, viewer models.Viewer, delta int) (*dto.BoardSnapshot, error)
	Close(viewer models.Viewer)
}

// BoardHandler exposes the per-viewer board state machine.
type BoardHandler struct {
	service boardService
}

// NewBoardHandler constructs the handler.
func NewBoardHandler(svc boardService) *BoardHandler {
	return &BoardHandler{service: svc}
}

type boardAction func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error)

func (h *BoardHandler) run(c *gin.Context, action boardAction) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	snapshot, err := action(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, snapshot, nil)
}

// Snapshot godoc
// @Summary Current board state
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board [get]
func (h *BoardHandler) Snapshot(c *gin.Context) {
	h.run(c, h.service.Snapshot)
}

// Close godoc
// @Summary Tear down the board session
// @Tags Board
// @Security BearerAuth
// @Success 204
// @Router /board [delete]
func (h *BoardHandler) Close(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	h.service.Close(viewer)
	response.NoContent(c)
}

// Next godoc
// @Summary Advance the unread rotation
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/rotation/next [post]
func (h *BoardHandler) Next(c *gin.Context) {
	h.run(c, h.service.Next)
}

// Prev godoc
// @Summary Step the unread rotation back
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/rotation/prev [post]
func (h *BoardHandler) Prev(c *gin.Context) {
	h.run(c, h.service.Prev)
}

// Hover godoc
// @Summary Pause the rotation
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/rotation/hover [post]
func (h *BoardHandler) Hover(c *gin.Context) {
	h.run(c, h.service.HoverEnter)
}

// Leave godoc
// @Summary Resume the rotation
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/rotation/leave [post]
func (h *BoardHandler) Leave(c *gin.Context) {
	h.run(c, h.service.HoverLeave)
}

// Open godoc
// @Summary Open an item in the reader
// @Tags Board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Param payload body dto.BoardOpenRequest false "Initial viewport"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/items/{id}/open [post]
func (h *BoardHandler) Open(c *gin.Context) {
	var req dto.BoardOpenRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid open payload") {
		return
	}
	id := c.Param("id")
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.Open(ctx, viewer, id, req.Viewport)
	})
}

// Scroll godoc
// @Summary Report a scroll inside the reader
// @Tags Board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BoardScrollRequest true "Viewport"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /board/scroll [post]
func (h *BoardHandler) Scroll(c *gin.Context) {
	var req dto.BoardScrollRequest
	if !bindJSON(c, &req, "invalid scroll payload") {
		return
	}
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.Scroll(ctx, viewer, req.Viewport)
	})
}

// CloseItem godoc
// @Summary Close the reader
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/close [post]
func (h *BoardHandler) CloseItem(c *gin.Context) {
	h.run(c, h.service.CloseItem)
}

// Acknowledge godoc
// @Summary Acknowledge the open item
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /board/acknowledge [post]
func (h *BoardHandler) Acknowledge(c *gin.Context) {
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.Acknowledge(ctx, viewer, "")
	})
}

// SetArchive godoc
// @Summary Change the archive filter
// @Description Any filter change returns the archive to its first page
// @Tags Board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BoardArchiveRequest true "Filter"
// @Success 200 {object} response.Envelope
// @Router /board/archive [put]
func (h *BoardHandler) SetArchive(c *gin.Context) {
	var req dto.BoardArchiveRequest
	if !bindJSON(c, &req, "invalid archive filter payload") {
		return
	}
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.SetArchiveFilter(ctx, viewer, req)
	})
}

// ArchiveNext godoc
// @Summary Next archive page
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/archive/next [post]
func (h *BoardHandler) ArchiveNext(c *gin.Context) {
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.ArchivePage(ctx, viewer, 1)
	})
}

// ArchivePrev godoc
// @Summary Previous archive page
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /board/archive/prev [post]
func (h *BoardHandler) ArchivePrev(c *gin.Context) {
	h.run(c, func(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
		return h.service.ArchivePage(ctx, viewer, -1)
	})
}
