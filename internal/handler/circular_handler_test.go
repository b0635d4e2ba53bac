package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/internal/service"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type fakeCircularSrv struct {
	items      []dto.CircularResponse
	detail     *dto.CircularDetail
	created    *dto.CircularResponse
	stats      *dto.CircularStats
	statsHit   bool
	roster     *dto.ReceiptRoster
	pagination *models.Pagination
	err        error

	lastViewer models.Viewer
	lastID     string
	lastDraft  models.CommunicationDraft
	lastQuery  dto.ArchiveQuery
}

func (f *fakeCircularSrv) List(_ context.Context, viewer models.Viewer) ([]dto.CircularResponse, error) {
	f.lastViewer = viewer
	return f.items, f.err
}

func (f *fakeCircularSrv) Get(_ context.Context, viewer models.Viewer, id string) (*dto.CircularDetail, error) {
	f.lastViewer, f.lastID = viewer, id
	return f.detail, f.err
}

func (f *fakeCircularSrv) Create(_ context.Context, viewer models.Viewer, draft models.CommunicationDraft) (*dto.CircularResponse, error) {
	f.lastViewer, f.lastDraft = viewer, draft
	return f.created, f.err
}

func (f *fakeCircularSrv) Update(_ context.Context, viewer models.Viewer, id string, draft models.CommunicationDraft) (*dto.CircularResponse, error) {
	f.lastViewer, f.lastID, f.lastDraft = viewer, id, draft
	return f.created, f.err
}

func (f *fakeCircularSrv) Unread(_ context.Context, viewer models.Viewer) ([]dto.CircularResponse, error) {
	f.lastViewer = viewer
	return f.items, f.err
}

func (f *fakeCircularSrv) Archive(_ context.Context, viewer models.Viewer, query dto.ArchiveQuery) ([]dto.CircularResponse, *models.Pagination, error) {
	f.lastViewer, f.lastQuery = viewer, query
	return f.items, f.pagination, f.err
}

func (f *fakeCircularSrv) Stats(_ context.Context, viewer models.Viewer) (*dto.CircularStats, bool, error) {
	f.lastViewer = viewer
	return f.stats, f.statsHit, f.err
}

func (f *fakeCircularSrv) Receipts(_ context.Context, viewer models.Viewer, id string) (*dto.ReceiptRoster, error) {
	f.lastViewer, f.lastID = viewer, id
	return f.roster, f.err
}

type fakeBoardAck struct {
	snapshot *dto.BoardSnapshot
	err      error
	lastID   string
}

func (f *fakeBoardAck) Acknowledge(_ context.Context, _ models.Viewer, id string) (*dto.BoardSnapshot, error) {
	f.lastID = id
	return f.snapshot, f.err
}

type fakeExporter struct {
	file       *service.ExportFile
	err        error
	lastFormat string
}

func (f *fakeExporter) ExportReceipts(_ context.Context, _ models.Viewer, _ string, format string) (*service.ExportFile, error) {
	f.lastFormat = format
	return f.file, f.err
}

func sampleResponse(id, title string) dto.CircularResponse {
	return dto.CircularResponse{Communication: models.Communication{ID: id, Title: title, Category: models.CategoryCircular}}
}

func TestCircularHandlerListRequiresViewer(t *testing.T) {
	handler := NewCircularHandler(&fakeCircularSrv{}, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars", nil)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCircularHandlerList(t *testing.T) {
	srv := &fakeCircularSrv{items: []dto.CircularResponse{sampleResponse("c1", "Exam timetable")}}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars", nil)
	withViewer(c, testViewer)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testViewer, srv.lastViewer)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Exam timetable", envelope.Data[0]["title"])
}

func TestCircularHandlerCreate(t *testing.T) {
	created := sampleResponse("c9", "Lab closure")
	srv := &fakeCircularSrv{created: &created}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	body := []byte(`{"title":"Lab closure","content":"Closed on Friday","category":"MEMO","priority":"HIGH","target_roles":["STAFF"]}`)
	c, w := newGinContext(http.MethodPost, "/circulars", body)
	withViewer(c, testViewer)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.CategoryMemo, srv.lastDraft.Category)
	assert.Equal(t, models.PriorityHigh, srv.lastDraft.Priority)
	assert.Equal(t, []models.UserRole{models.RoleStaff}, srv.lastDraft.TargetRoles)
}

func TestCircularHandlerCreateValidationDetails(t *testing.T) {
	srv := &fakeCircularSrv{err: appErrors.WithDetails(appErrors.ErrValidation, "invalid communication", []string{"title: is required"})}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodPost, "/circulars", []byte(`{"content":"x"}`))
	withViewer(c, testViewer)
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error["code"])
	assert.Contains(t, envelope.Error["details"], "title: is required")
}

func TestCircularHandlerUpdatePassesID(t *testing.T) {
	updated := sampleResponse("c1", "Revised")
	srv := &fakeCircularSrv{created: &updated}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodPut, "/circulars/c1", []byte(`{"title":"Revised","content":"body","category":"CIRCULAR","priority":"NORMAL"}`))
	c.Params = append(c.Params, ginParam("id", "c1"))
	withViewer(c, testViewer)
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", srv.lastID)
	assert.Equal(t, "Revised", srv.lastDraft.Title)
}

func TestCircularHandlerAcknowledgeGoesThroughBoard(t *testing.T) {
	board := &fakeBoardAck{err: appErrors.ErrScrollGateLocked}
	handler := NewCircularHandler(&fakeCircularSrv{}, board, &fakeExporter{})

	c, w := newGinContext(http.MethodPost, "/circulars/c1/acknowledge", nil)
	c.Params = append(c.Params, ginParam("id", "c1"))
	withViewer(c, testViewer)
	handler.Acknowledge(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "c1", board.lastID)
}

func TestCircularHandlerArchiveBindsQuery(t *testing.T) {
	srv := &fakeCircularSrv{
		items:      []dto.CircularResponse{sampleResponse("c2", "Budget memo")},
		pagination: &models.Pagination{Page: 2, PageSize: 5, TotalCount: 6, TotalPages: 2},
	}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars/archive?category=MEMO&q=budget&status=PENDING&sort=OLDEST&page=2&page_size=5", nil)
	withViewer(c, testViewer)
	handler.Archive(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ArchiveQuery{Category: "MEMO", Search: "budget", Status: "PENDING", Sort: "OLDEST", Page: 2, PageSize: 5}, srv.lastQuery)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.EqualValues(t, 2, envelope.Pagination["page"])
	assert.EqualValues(t, 6, envelope.Pagination["total_count"])
}

func TestCircularHandlerArchiveRejectsBadPage(t *testing.T) {
	handler := NewCircularHandler(&fakeCircularSrv{}, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars/archive?page=abc", nil)
	withViewer(c, testViewer)
	handler.Archive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCircularHandlerStatsReportsCacheHit(t *testing.T) {
	srv := &fakeCircularSrv{stats: &dto.CircularStats{Visible: 4, Unread: 2}, statsHit: true}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars/stats", nil)
	withViewer(c, testViewer)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.EqualValues(t, 2, envelope.Data["unread"])
}

func TestCircularHandlerReceiptsForbidden(t *testing.T) {
	srv := &fakeCircularSrv{err: appErrors.ErrForbidden}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars/c1/receipts", nil)
	c.Params = append(c.Params, ginParam("id", "c1"))
	withViewer(c, testViewer)
	handler.Receipts(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "c1", srv.lastID)
}

func TestCircularHandlerExportReceipts(t *testing.T) {
	exporter := &fakeExporter{file: &service.ExportFile{Filename: "receipts_c1.csv", ContentType: "text/csv", Payload: []byte("Name\n")}}
	handler := NewCircularHandler(&fakeCircularSrv{}, &fakeBoardAck{}, exporter)

	c, w := newGinContext(http.MethodGet, "/circulars/c1/receipts/export?format=csv", nil)
	c.Params = append(c.Params, ginParam("id", "c1"))
	withViewer(c, testViewer)
	handler.ExportReceipts(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.lastFormat)
	assert.Equal(t, `attachment; filename="receipts_c1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Name\n", w.Body.String())
}

func TestCircularHandlerFetchFailureIsRetryable(t *testing.T) {
	srv := &fakeCircularSrv{err: appErrors.ErrFetchFailed}
	handler := NewCircularHandler(srv, &fakeBoardAck{}, &fakeExporter{})

	c, w := newGinContext(http.MethodGet, "/circulars/unread", nil)
	withViewer(c, testViewer)
	handler.Unread(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["retryable"])
}
