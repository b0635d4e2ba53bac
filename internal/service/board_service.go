package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/circular"
	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type boardSource interface {
	Visible(ctx context.Context, viewer models.Viewer) ([]models.Communication, error)
	Present(ctx context.Context, viewer models.Viewer, items []models.Communication) []dto.CircularResponse
	Detail(ctx context.Context, viewer models.Viewer, item models.Communication) dto.CircularDetail
	Acknowledge(ctx context.Context, viewer models.Viewer, id string) (*dto.CircularResponse, bool, error)
	ArchivePageSize() int
}

// BoardConfig tunes board sessions.
type BoardConfig struct {
	UnreadPageSize   int
	RotationInterval time.Duration
	ScrollTolerance  float64
	AckFlashDuration time.Duration
	IdleTTL          time.Duration
}

type boardSession struct {
	mu       sync.Mutex
	viewer   models.Viewer
	rotation *circular.Rotation
	gate     *circular.ScrollGate
	archive  *circular.ArchiveView
	lastSeen time.Time
	closed   bool

	flashID    string
	flashUntil time.Time
	flashTimer *time.Timer

	cancel context.CancelFunc
	done   chan struct{}
}

// BoardService holds the server-side view state of each viewer's board:
// the rotating action-required carousel, the reader with its scroll gate
// and the archive table. Each session owns one rotation driver goroutine.
type BoardService struct {
	source  boardSource
	config  BoardConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*boardSession
	janitor  chan struct{}
}

// NewBoardService constructs a BoardService. Call Shutdown to stop every driver.
func NewBoardService(source boardSource, config BoardConfig, metrics *MetricsService, logger *zap.Logger) *BoardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.UnreadPageSize <= 0 {
		config.UnreadPageSize = circular.DefaultUnreadPageSize
	}
	if config.RotationInterval <= 0 {
		config.RotationInterval = 5 * time.Second
	}
	if config.ScrollTolerance < 0 {
		config.ScrollTolerance = circular.DefaultScrollTolerance
	}
	if config.AckFlashDuration <= 0 {
		config.AckFlashDuration = 850 * time.Millisecond
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BoardService{
		source:   source,
		config:   config,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*boardSession),
	}
}

// Start launches the idle-session janitor. It stops with ctx or Shutdown.
func (s *BoardService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.janitor != nil {
		s.mu.Unlock()
		return
	}
	s.janitor = make(chan struct{})
	done := s.janitor
	s.mu.Unlock()

	interval := s.config.IdleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.evictIdle()
			}
		}
	}()
}

// Shutdown tears down every session and waits for their drivers to exit.
func (s *BoardService) Shutdown() {
	s.cancel()
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*boardSession)
	janitor := s.janitor
	s.mu.Unlock()

	for _, sess := range sessions {
		s.teardown(sess)
	}
	if janitor != nil {
		<-janitor
	}
}

// Snapshot returns the current board state, opening a session when needed.
func (s *BoardService) Snapshot(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, nil)
}

// Next moves the carousel forward one page.
func (s *BoardService) Next(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		sess.rotation.Next()
		return nil
	})
}

// Prev moves the carousel back one page.
func (s *BoardService) Prev(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		sess.rotation.Prev()
		return nil
	})
}

// HoverEnter pauses automatic rotation.
func (s *BoardService) HoverEnter(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		sess.rotation.OnHoverEnter()
		return nil
	})
}

// HoverLeave resumes automatic rotation.
func (s *BoardService) HoverLeave(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		sess.rotation.OnHoverLeave()
		return nil
	})
}

// Open shows id in the reader. When a viewport is given it measures whether
// the item already fits; otherwise the gate stays locked.
func (s *BoardService) Open(ctx context.Context, viewer models.Viewer, id string, viewport *circular.Viewport) (*dto.BoardSnapshot, error) {
	if viewport != nil {
		if err := viewport.Validate(); err != nil {
			return nil, invalidViewport(err)
		}
	}
	return s.with(ctx, viewer, func(sess *boardSession, visible []models.Communication) error {
		if _, ok := findItem(visible, id); !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		s.clearFlash(sess)
		sess.gate.Open(id)
		if viewport == nil {
			return nil
		}
		if _, err := sess.gate.Measure(*viewport); err != nil {
			return invalidViewport(err)
		}
		return nil
	})
}

// Scroll reports a scroll position inside the reader.
func (s *BoardService) Scroll(ctx context.Context, viewer models.Viewer, viewport circular.Viewport) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		if sess.gate.ItemID() == "" {
			return appErrors.Clone(appErrors.ErrConflict, "no item is open")
		}
		if _, err := sess.gate.OnScroll(viewport); err != nil {
			return invalidViewport(err)
		}
		return nil
	})
}

func invalidViewport(err error) error {
	return appErrors.WithDetails(appErrors.ErrValidation, "invalid viewport", []string{"viewport: " + err.Error()})
}

// CloseItem closes the reader.
func (s *BoardService) CloseItem(ctx context.Context, viewer models.Viewer) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		s.clearFlash(sess)
		sess.gate.Close()
		return nil
	})
}

// Acknowledge acknowledges the open item once its gate is unlocked. An empty
// id means the open item. The reader closes after the success flash.
func (s *BoardService) Acknowledge(ctx context.Context, viewer models.Viewer, id string) (*dto.BoardSnapshot, error) {
	sess := s.session(viewer)
	sess.mu.Lock()
	openID := sess.gate.ItemID()
	unlocked := sess.gate.Unlocked()
	sess.mu.Unlock()

	if id == "" {
		id = openID
	}
	if openID == "" || openID != id || !unlocked {
		return nil, appErrors.Clone(appErrors.ErrScrollGateLocked, "open the item and scroll to the end before acknowledging")
	}

	if _, _, err := s.source.Acknowledge(ctx, viewer, id); err != nil {
		return nil, err
	}

	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		if sess.gate.ItemID() == id {
			s.startFlash(sess, id)
		}
		return nil
	})
}

// SetArchiveFilter replaces the archive filters; a change resets to the first page.
func (s *BoardService) SetArchiveFilter(ctx context.Context, viewer models.Viewer, req dto.BoardArchiveRequest) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, visible []models.Communication) error {
		filter := circular.ArchiveFilter{
			Category: req.Category,
			Search:   req.Search,
			Status:   circular.StatusFilter(req.Status),
			Sort:     circular.SortOrder(req.Sort),
		}.Normalize()
		if sess.archive.SetFilter(filter) {
			sess.archive.Apply(visible, sess.viewer.ID)
		}
		return nil
	})
}

// ArchivePage moves the archive table one page forward (delta > 0) or back.
func (s *BoardService) ArchivePage(ctx context.Context, viewer models.Viewer, delta int) (*dto.BoardSnapshot, error) {
	return s.with(ctx, viewer, func(sess *boardSession, _ []models.Communication) error {
		switch {
		case delta > 0:
			sess.archive.Next()
		case delta < 0:
			sess.archive.Prev()
		}
		return nil
	})
}

// Close tears the viewer's session down. Closing an unknown session is a no-op.
func (s *BoardService) Close(viewer models.Viewer) {
	s.mu.Lock()
	sess, ok := s.sessions[viewer.ID]
	if ok {
		delete(s.sessions, viewer.ID)
	}
	s.mu.Unlock()
	if ok {
		s.teardown(sess)
	}
}

// ActiveSessions reports how many sessions are open.
func (s *BoardService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *BoardService) with(ctx context.Context, viewer models.Viewer, fn func(*boardSession, []models.Communication) error) (*dto.BoardSnapshot, error) {
	visible, err := s.source.Visible(ctx, viewer)
	if err != nil {
		return nil, err
	}

	sess := s.session(viewer)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.viewer = viewer
	sess.lastSeen = s.now()
	s.expireFlash(sess)
	sess.rotation.Sync(circular.UnreadItems(visible, viewer))
	sess.archive.Apply(visible, viewer.ID)

	if fn != nil {
		if err := fn(sess, visible); err != nil {
			return nil, err
		}
	}
	return s.render(ctx, sess, visible), nil
}

func (s *BoardService) render(ctx context.Context, sess *boardSession, visible []models.Communication) *dto.BoardSnapshot {
	viewer := sess.viewer
	archivePage := sess.archive.Apply(visible, viewer.ID)

	snap := &dto.BoardSnapshot{
		Viewer: viewer,
		Rotation: dto.RotationState{
			Items:      s.source.Present(ctx, viewer, sess.rotation.Page()),
			PageIndex:  sess.rotation.PageIndex(),
			PageCount:  sess.rotation.PageCount(),
			PageSize:   sess.rotation.PageSize(),
			Total:      sess.rotation.Total(),
			Paused:     sess.rotation.Paused(),
			IntervalMs: s.config.RotationInterval.Milliseconds(),
		},
		Archive: dto.ArchiveState{
			Filter: sess.archive.Filter(),
			Items:  s.source.Present(ctx, viewer, archivePage.Items),
			Pagination: models.Pagination{
				Page:       archivePage.Index + 1,
				PageSize:   archivePage.Size,
				TotalCount: archivePage.TotalCount,
				TotalPages: archivePage.TotalPages,
			},
		},
		UpdatedAt: s.now().UTC(),
	}

	if id := sess.gate.ItemID(); id != "" {
		item, ok := findItem(visible, id)
		if !ok {
			s.clearFlash(sess)
			sess.gate.Close()
			return snap
		}
		must := circular.MustAcknowledge(item, viewer)
		snap.OpenItem = &dto.OpenItemState{
			Item:            s.source.Detail(ctx, viewer, item),
			Gate:            sess.gate.State(),
			MustAcknowledge: must,
			CanAcknowledge:  must && sess.gate.Unlocked() && !item.HasAcknowledged(viewer.ID),
			SuccessFlash:    sess.flashID == id,
		}
	}
	return snap
}

func (s *BoardService) session(viewer models.Viewer) *boardSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[viewer.ID]; ok {
		return sess
	}

	ctx, cancel := context.WithCancel(s.ctx)
	sess := &boardSession{
		viewer:   viewer,
		rotation: circular.NewRotation(s.config.UnreadPageSize),
		gate:     circular.NewScrollGate(s.config.ScrollTolerance),
		archive:  circular.NewArchiveView(s.source.ArchivePageSize()),
		lastSeen: s.now(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.sessions[viewer.ID] = sess
	go s.drive(ctx, sess)

	s.metrics.BoardSessionOpened()
	s.logger.Debug("board session opened", zap.String("viewer_id", viewer.ID))
	return sess
}

// drive advances the carousel on every tick until the session is torn down.
func (s *BoardService) drive(ctx context.Context, sess *boardSession) {
	defer close(sess.done)
	ticker := time.NewTicker(s.config.RotationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.mu.Lock()
			if !sess.closed {
				sess.rotation.OnTick()
			}
			sess.mu.Unlock()
		}
	}
}

func (s *BoardService) teardown(sess *boardSession) {
	sess.mu.Lock()
	sess.closed = true
	s.clearFlash(sess)
	sess.gate.Close()
	viewerID := sess.viewer.ID
	sess.mu.Unlock()

	sess.cancel()
	<-sess.done
	s.metrics.BoardSessionClosed()
	s.logger.Debug("board session closed", zap.String("viewer_id", viewerID))
}

func (s *BoardService) evictIdle() {
	cutoff := s.now().Add(-s.config.IdleTTL)
	var idle []*boardSession

	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.teardown(sess)
	}
	if len(idle) > 0 {
		s.logger.Info("evicted idle board sessions", zap.Int("count", len(idle)))
	}
}

// startFlash shows the success state and schedules the reader to close.
// Callers hold sess.mu.
func (s *BoardService) startFlash(sess *boardSession, id string) {
	s.clearFlash(sess)
	sess.flashID = id
	sess.flashUntil = s.now().Add(s.config.AckFlashDuration)
	sess.flashTimer = time.AfterFunc(s.config.AckFlashDuration, func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.closed || sess.flashID != id {
			return
		}
		sess.flashID = ""
		sess.flashTimer = nil
		if sess.gate.ItemID() == id {
			sess.gate.Close()
		}
	})
}

// expireFlash closes the reader when the flash deadline passed but the timer has not fired yet.
func (s *BoardService) expireFlash(sess *boardSession) {
	if sess.flashID == "" || s.now().Before(sess.flashUntil) {
		return
	}
	id := sess.flashID
	s.clearFlash(sess)
	if sess.gate.ItemID() == id {
		sess.gate.Close()
	}
}

func (s *BoardService) clearFlash(sess *boardSession) {
	if sess.flashTimer != nil {
		sess.flashTimer.Stop()
		sess.flashTimer = nil
	}
	sess.flashID = ""
	sess.flashUntil = time.Time{}
}

func findItem(items []models.Communication, id string) (models.Communication, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Communication{}, false
}
