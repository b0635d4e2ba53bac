package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/middleware"
	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/internal/service"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/response"
)

type circularService interface {
	List(ctx context.Context, viewer models.Viewer) ([]dto.CircularResponse, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*dto.CircularDetail, error)
	Create(ctx context.Context, viewer models.Viewer, draft models.CommunicationDraft) (*dto.CircularResponse, error)
	Update(ctx context.Context, viewer models.Viewer, id string, draft models.CommunicationDraft) (*dto.CircularResponse, error)
	Unread(ctx context.Context, viewer models.Viewer) ([]dto.CircularResponse, error)
	Archive(ctx context.Context, viewer models.Viewer, query dto.ArchiveQuery) ([]dto.CircularResponse, *models.Pagination, error)
	Stats(ctx context.Context, viewer models.Viewer) (*dto.CircularStats, bool, error)
	Receipts(ctx context.Context, viewer models.Viewer, id string) (*dto.ReceiptRoster, error)
}

type boardAcknowledger interface {
	Acknowledge(ctx context.Context, viewer models.Viewer, id string) (*dto.BoardSnapshot, error)
}

type receiptExporter interface {
	ExportReceipts(ctx context.Context, viewer models.Viewer, id, format string) (*service.ExportFile, error)
}

// CircularHandler serves the circulars resource.
type CircularHandler struct {
	service  circularService
	board    boardAcknowledger
	exporter receiptExporter
}

// NewCircularHandler constructs the handler.
func NewCircularHandler(svc circularService, board boardAcknowledger, exporter receiptExporter) *CircularHandler {
	return &CircularHandler{service: svc, board: board, exporter: exporter}
}

// List godoc
// @Summary List visible communications
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /circulars [get]
func (h *CircularHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get communication detail
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /circulars/{id} [get]
func (h *CircularHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish a communication
// @Tags Circulars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CommunicationDraft true "Draft"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /circulars [post]
func (h *CircularHandler) Create(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var draft models.CommunicationDraft
	if !bindJSON(c, &draft, "invalid communication payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), viewer, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusCreated, item, nil)
}

// Update godoc
// @Summary Edit a communication
// @Description Saving a revision resets every acknowledgement
// @Tags Circulars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Param payload body models.CommunicationDraft true "Draft"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /circulars/{id} [put]
func (h *CircularHandler) Update(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var draft models.CommunicationDraft
	if !bindJSON(c, &draft, "invalid communication payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), viewer, c.Param("id"), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, item, nil)
}

// Acknowledge godoc
// @Summary Acknowledge the open communication
// @Description Requires the item to be open on the caller's board with the scroll gate unlocked
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /circulars/{id}/acknowledge [post]
func (h *CircularHandler) Acknowledge(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.board.Acknowledge(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, snapshot, nil)
}

// Unread godoc
// @Summary Action-required communications
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /circulars/unread [get]
func (h *CircularHandler) Unread(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.Unread(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, items, nil)
}

// Archive godoc
// @Summary Query the archive
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param category query string false "ALL, ANNOUNCEMENT, CIRCULAR or MEMO"
// @Param q query string false "Case-insensitive search over title, content and author name"
// @Param status query string false "ALL, ACKNOWLEDGED or PENDING"
// @Param sort query string false "NEWEST or OLDEST"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /circulars/archive [get]
func (h *CircularHandler) Archive(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var query dto.ArchiveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid archive query"))
		return
	}
	items, pagination, err := h.service.Archive(c.Request.Context(), viewer, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, items, pagination)
}

// Stats godoc
// @Summary Board counters for the viewer
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /circulars/stats [get]
func (h *CircularHandler) Stats(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	stats, hit, err := h.service.Stats(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, stats, nil)
}

// Receipts godoc
// @Summary Receipt roster of a communication
// @Tags Circulars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /circulars/{id}/receipts [get]
func (h *CircularHandler) Receipts(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	roster, err := h.service.Receipts(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, roster, nil)
}

// ExportReceipts godoc
// @Summary Download the receipt roster
// @Tags Circulars
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /circulars/{id}/receipts/export [get]
func (h *CircularHandler) ExportReceipts(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	file, err := h.exporter.ExportReceipts(c.Request.Context(), viewer, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
