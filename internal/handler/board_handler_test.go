package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/circular"
	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type fakeBoardSrv struct {
	calls        []string
	err          error
	lastID       string
	lastOpen     *circular.Viewport
	lastViewport circular.Viewport
	lastFilter   dto.BoardArchiveRequest
	lastDelta    int
	closed       []string
}

func (f *fakeBoardSrv) snapshot(name string, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.BoardSnapshot{Viewer: viewer, Rotation: dto.RotationState{PageCount: 1}}, nil
}

func (f *fakeBoardSrv) Snapshot(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("snapshot", v)
}

func (f *fakeBoardSrv) Next(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("next", v)
}

func (f *fakeBoardSrv) Prev(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("prev", v)
}

func (f *fakeBoardSrv) HoverEnter(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("hover", v)
}

func (f *fakeBoardSrv) HoverLeave(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("leave", v)
}

func (f *fakeBoardSrv) Open(_ context.Context, v models.Viewer, id string, vp *circular.Viewport) (*dto.BoardSnapshot, error) {
	f.lastID, f.lastOpen = id, vp
	return f.snapshot("open", v)
}

func (f *fakeBoardSrv) Scroll(_ context.Context, v models.Viewer, vp circular.Viewport) (*dto.BoardSnapshot, error) {
	f.lastViewport = vp
	return f.snapshot("scroll", v)
}

func (f *fakeBoardSrv) CloseItem(_ context.Context, v models.Viewer) (*dto.BoardSnapshot, error) {
	return f.snapshot("close-item", v)
}

func (f *fakeBoardSrv) Acknowledge(_ context.Context, v models.Viewer, id string) (*dto.BoardSnapshot, error) {
	f.lastID = id
	return f.snapshot("acknowledge", v)
}

func (f *fakeBoardSrv) SetArchiveFilter(_ context.Context, v models.Viewer, req dto.BoardArchiveRequest) (*dto.BoardSnapshot, error) {
	f.lastFilter = req
	return f.snapshot("archive", v)
}

func (f *fakeBoardSrv) ArchivePage(_ context.Context, v models.Viewer, delta int) (*dto.BoardSnapshot, error) {
	f.lastDelta = delta
	return f.snapshot("archive-page", v)
}

func (f *fakeBoardSrv) Close(v models.Viewer) {
	f.closed = append(f.closed, v.ID)
}

func TestBoardHandlerSnapshot(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodGet, "/board", nil)
	withViewer(c, testViewer)
	handler.Snapshot(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	viewer, ok := envelope.Data["viewer"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u3", viewer["id"])
}

func TestBoardHandlerRotationInputs(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	for _, step := range []struct {
		path string
		call func(h *BoardHandler) func(*gin.Context)
	}{
		{"/board/rotation/next", func(h *BoardHandler) func(*gin.Context) { return h.Next }},
		{"/board/rotation/prev", func(h *BoardHandler) func(*gin.Context) { return h.Prev }},
		{"/board/rotation/hover", func(h *BoardHandler) func(*gin.Context) { return h.Hover }},
		{"/board/rotation/leave", func(h *BoardHandler) func(*gin.Context) { return h.Leave }},
	} {
		c, w := newGinContext(http.MethodPost, step.path, nil)
		withViewer(c, testViewer)
		step.call(handler)(c)
		assert.Equal(t, http.StatusOK, w.Code, step.path)
	}

	assert.Equal(t, []string{"next", "prev", "hover", "leave"}, srv.calls)
}

func TestBoardHandlerOpenWithViewport(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodPost, "/board/items/c4/open", []byte(`{"viewport":{"scroll_offset":0,"visible_height":400,"total_height":1200}}`))
	c.Params = append(c.Params, ginParam("id", "c4"))
	withViewer(c, testViewer)
	handler.Open(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c4", srv.lastID)
	require.NotNil(t, srv.lastOpen)
	assert.Equal(t, circular.Viewport{VisibleHeight: 400, TotalHeight: 1200}, *srv.lastOpen)
}

func TestBoardHandlerOpenWithoutBodyPassesNoLayout(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodPost, "/board/items/c4/open", nil)
	c.Params = append(c.Params, ginParam("id", "c4"))
	withViewer(c, testViewer)
	handler.Open(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c4", srv.lastID)
	assert.Nil(t, srv.lastOpen)
}

func TestBoardHandlerScrollRequiresBody(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodPost, "/board/scroll", []byte(`not json`))
	withViewer(c, testViewer)
	handler.Scroll(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, srv.calls)
}

func TestBoardHandlerAcknowledgeLockedGate(t *testing.T) {
	srv := &fakeBoardSrv{err: appErrors.ErrScrollGateLocked}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodPost, "/board/acknowledge", nil)
	withViewer(c, testViewer)
	handler.Acknowledge(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "", srv.lastID)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "SCROLL_GATE_LOCKED", envelope.Error["code"])
}

func TestBoardHandlerArchiveFilterAndPaging(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodPut, "/board/archive", []byte(`{"category":"MEMO","q":"budget","status":"PENDING","sort":"OLDEST"}`))
	withViewer(c, testViewer)
	handler.SetArchive(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.BoardArchiveRequest{Category: "MEMO", Search: "budget", Status: "PENDING", Sort: "OLDEST"}, srv.lastFilter)

	c, _ = newGinContext(http.MethodPost, "/board/archive/prev", nil)
	withViewer(c, testViewer)
	handler.ArchivePrev(c)
	assert.Equal(t, -1, srv.lastDelta)

	c, _ = newGinContext(http.MethodPost, "/board/archive/next", nil)
	withViewer(c, testViewer)
	handler.ArchiveNext(c)
	assert.Equal(t, 1, srv.lastDelta)
}

func TestBoardHandlerClose(t *testing.T) {
	srv := &fakeBoardSrv{}
	handler := NewBoardHandler(srv)

	c, w := newGinContext(http.MethodDelete, "/board", nil)
	withViewer(c, testViewer)
	handler.Close(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"u3"}, srv.closed)
}
