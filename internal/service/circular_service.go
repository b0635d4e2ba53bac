package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/circular"
	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

const statsCachePrefix = "stats:"

type circularStore interface {
	List(ctx context.Context) ([]models.Communication, error)
	Get(ctx context.Context, id string) (*models.Communication, error)
	Create(ctx context.Context, item models.Communication) (models.Communication, error)
	Update(ctx context.Context, item models.Communication) (models.Communication, error)
}

// acknowledgementStore is implemented by stores that can append an
// acknowledgement atomically.
type acknowledgementStore interface {
	AddAcknowledgement(ctx context.Context, id, viewerID string) (bool, error)
}

type audienceDirectory interface {
	List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryUser, error)
}

type activityRecorder interface {
	Record(actor models.Viewer, action models.ActivityAction, item models.Communication)
}

type visitBaseline interface {
	Baseline(ctx context.Context, viewerID string) *time.Time
}

// CircularConfig tunes list endpoints.
type CircularConfig struct {
	ArchivePageSize int
	StatsTTL        time.Duration
}

// CircularService implements the communications board use cases on top of a record store.
type CircularService struct {
	store     circularStore
	directory audienceDirectory
	activity  activityRecorder
	visits    visitBaseline
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	config    CircularConfig
	now       func() time.Time

	// mu serializes read-modify-write cycles so history order matches commit order.
	mu sync.Mutex
}

// CircularDeps groups the optional collaborators of CircularService.
type CircularDeps struct {
	Directory audienceDirectory
	Activity  activityRecorder
	Visits    visitBaseline
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// NewCircularService constructs the service. Every dependency except store may be nil.
func NewCircularService(store circularStore, deps CircularDeps, config CircularConfig) *CircularService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if config.ArchivePageSize <= 0 {
		config.ArchivePageSize = circular.DefaultArchivePageSize
	}
	return &CircularService{
		store:     store,
		directory: deps.Directory,
		activity:  deps.Activity,
		visits:    deps.Visits,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		config:    config,
		now:       time.Now,
	}
}

// ArchivePageSize reports the default archive page size.
func (s *CircularService) ArchivePageSize() int {
	return s.config.ArchivePageSize
}

// Visible loads the store and filters it for viewer, newest first.
func (s *CircularService) Visible(ctx context.Context, viewer models.Viewer) ([]models.Communication, error) {
	items, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	visible := circular.VisibleItems(items, viewer)
	circular.SortByPublished(visible, circular.SortNewest)
	return visible, nil
}

// List returns every item visible to viewer.
func (s *CircularService) List(ctx context.Context, viewer models.Viewer) ([]dto.CircularResponse, error) {
	visible, err := s.Visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return s.Present(ctx, viewer, visible), nil
}

// Get returns one item with its resolved individual targets. Hidden items
// are reported as missing.
func (s *CircularService) Get(ctx context.Context, viewer models.Viewer, id string) (*dto.CircularDetail, error) {
	item, err := s.visibleItem(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, viewer, *item), nil
}

// Create validates draft and publishes it under viewer.
func (s *CircularService) Create(ctx context.Context, viewer models.Viewer, draft models.CommunicationDraft) (*dto.CircularResponse, error) {
	if !circular.CanAuthor(viewer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can publish communications")
	}
	draft, err := s.validateDraft(ctx, draft)
	if err != nil {
		return nil, err
	}
	if draft.TotalRecipients == 0 {
		draft.TotalRecipients = s.audienceSize(ctx, draft, viewer.ID)
	}

	s.mu.Lock()
	item := circular.NewCommunication(draft, viewer, uuid.NewString(), s.now().UTC())
	start := time.Now()
	created, err := s.store.Create(ctx, item)
	s.metrics.ObserveStoreCall("create", err, time.Since(start))
	s.mu.Unlock()
	if err != nil {
		return nil, writeFailed(err, "failed to publish communication")
	}

	s.afterWrite(ctx, viewer, models.ActivityPublished, created)
	s.metrics.CircularPublished()
	s.logger.Info("communication published",
		zap.String("viewer_id", viewer.ID), zap.String("circular_id", created.ID), zap.String("category", string(created.Category)))

	resp := s.presentOne(ctx, viewer, created)
	return &resp, nil
}

// Update revises an existing item. The stored result is read back so the
// response reflects what later reads will see.
func (s *CircularService) Update(ctx context.Context, viewer models.Viewer, id string, draft models.CommunicationDraft) (*dto.CircularResponse, error) {
	s.mu.Lock()
	existing, err := s.visibleItem(ctx, viewer, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !circular.CanEdit(*existing, viewer) {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot edit this communication")
	}
	draft, err = s.validateDraft(ctx, draft)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	revised := circular.Revise(*existing, draft, viewer, s.now().UTC())
	start := time.Now()
	_, err = s.store.Update(ctx, revised)
	s.metrics.ObserveStoreCall("update", err, time.Since(start))
	s.mu.Unlock()
	if err != nil {
		return nil, writeFailed(err, "failed to save communication")
	}

	stored, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, viewer, models.ActivityEdited, *stored)
	s.metrics.CircularEdited()
	s.logger.Info("communication edited",
		zap.String("viewer_id", viewer.ID), zap.String("circular_id", id), zap.Int("revision", len(stored.History)))

	resp := s.presentOne(ctx, viewer, *stored)
	return &resp, nil
}

// Acknowledge records viewer's acknowledgement of id. Repeats succeed with
// changed=false.
func (s *CircularService) Acknowledge(ctx context.Context, viewer models.Viewer, id string) (*dto.CircularResponse, bool, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, false, err
	}

	next, changed, err := circular.Acknowledge(*item, viewer)
	switch {
	case errors.Is(err, circular.ErrAckExempt):
		return nil, false, appErrors.Clone(appErrors.ErrAckExempt, "authors and system administrators do not acknowledge")
	case errors.Is(err, circular.ErrNotVisible):
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
	case err != nil:
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge")
	}
	if !changed {
		resp := s.presentOne(ctx, viewer, *item)
		return &resp, false, nil
	}

	if acker, ok := s.store.(acknowledgementStore); ok {
		start := time.Now()
		changed, err = acker.AddAcknowledgement(ctx, id, viewer.ID)
		s.metrics.ObserveStoreCall("acknowledge", err, time.Since(start))
		if err != nil {
			return nil, false, writeFailed(err, "failed to record acknowledgement")
		}
	} else {
		changed, err = s.acknowledgeLocked(ctx, viewer, next.ID)
		if err != nil {
			return nil, false, err
		}
	}

	stored, err := s.getItem(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.afterWrite(ctx, viewer, models.ActivityAcknowledged, *stored)
		s.metrics.CircularAcknowledged()
		s.logger.Info("communication acknowledged", zap.String("viewer_id", viewer.ID), zap.String("circular_id", id))
	}

	resp := s.presentOne(ctx, viewer, *stored)
	return &resp, changed, nil
}

// acknowledgeLocked re-reads the item under the writer lock so concurrent
// acknowledgements on stores without an atomic append do not lose updates.
func (s *CircularService) acknowledgeLocked(ctx context.Context, viewer models.Viewer, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getItem(ctx, id)
	if err != nil {
		return false, err
	}
	next, changed, err := circular.Acknowledge(*current, viewer)
	if err != nil || !changed {
		return false, nil
	}
	start := time.Now()
	_, err = s.store.Update(ctx, next)
	s.metrics.ObserveStoreCall("acknowledge", err, time.Since(start))
	if err != nil {
		return false, writeFailed(err, "failed to record acknowledgement")
	}
	return true, nil
}

// Archive runs the archive query over the visible set and returns one page.
// Pages are 1-based; out-of-range pages are clamped.
func (s *CircularService) Archive(ctx context.Context, viewer models.Viewer, query dto.ArchiveQuery) ([]dto.CircularResponse, *models.Pagination, error) {
	visible, err := s.Visible(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}

	filter := circular.ArchiveFilter{
		Category: query.Category,
		Search:   query.Search,
		Status:   circular.StatusFilter(query.Status),
		Sort:     circular.SortOrder(query.Sort),
	}.Normalize()
	size := query.PageSize
	if size <= 0 {
		size = s.config.ArchivePageSize
	}
	page := circular.Paginate(circular.Query(visible, viewer.ID, filter), query.Page-1, size)

	return s.Present(ctx, viewer, page.Items), &models.Pagination{
		Page:       page.Index + 1,
		PageSize:   page.Size,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}, nil
}

// Unread returns the action-required set for viewer.
func (s *CircularService) Unread(ctx context.Context, viewer models.Viewer) ([]dto.CircularResponse, error) {
	visible, err := s.Visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return s.Present(ctx, viewer, circular.UnreadItems(visible, viewer)), nil
}

// Stats returns the board counters for viewer and whether they came from cache.
func (s *CircularService) Stats(ctx context.Context, viewer models.Viewer) (*dto.CircularStats, bool, error) {
	key := statsCachePrefix + viewer.ID
	var cached dto.CircularStats
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	visible, err := s.Visible(ctx, viewer)
	if err != nil {
		return nil, false, err
	}

	stats := dto.CircularStats{
		Visible:     len(visible),
		ByCategory:  map[string]int{},
		GeneratedAt: s.now().UTC(),
	}
	for _, item := range visible {
		stats.ByCategory[string(item.Category)]++
		if ack, total, tracked := circular.Progress(item); tracked && ack < total {
			stats.PendingCirculars++
		}
	}
	for _, item := range circular.UnreadItems(visible, viewer) {
		stats.Unread++
		if item.Priority == models.PriorityHigh {
			stats.UnreadHigh++
		}
	}

	s.cache.Set(ctx, key, stats, s.config.StatsTTL)
	return &stats, false, nil
}

// Receipts lists who has and has not acknowledged id. Only the author and
// administrators who may edit the item can read it.
func (s *CircularService) Receipts(ctx context.Context, viewer models.Viewer, id string) (*dto.ReceiptRoster, error) {
	item, err := s.visibleItem(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !circular.CanEdit(*item, viewer) && !circular.IsAuthor(*item, viewer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an administrator can view receipts")
	}

	users, err := s.directoryUsers(ctx)
	if err != nil {
		return nil, err
	}

	acked := make(map[string]struct{}, len(item.AcknowledgedBy))
	for _, uid := range item.AcknowledgedBy {
		acked[uid] = struct{}{}
	}

	roster := &dto.ReceiptRoster{
		CircularID:        item.ID,
		Title:             item.Title,
		Category:          string(item.Category),
		TotalRecipients:   item.TotalRecipients,
		AcknowledgedCount: len(item.AcknowledgedBy),
	}
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		inAudience := inAudience(*item, u)
		_, hasAck := acked[u.ID]
		if !inAudience && !hasAck {
			continue
		}
		seen[u.ID] = struct{}{}
		if inAudience {
			roster.AudienceSize++
		}
		roster.Receipts = append(roster.Receipts, receiptFor(u, hasAck, inAudience))
	}
	for _, uid := range item.AcknowledgedBy {
		if _, ok := seen[uid]; ok {
			continue
		}
		roster.Receipts = append(roster.Receipts, dto.Receipt{UserID: uid, Name: uid, Status: dto.ReceiptAcknowledged})
	}

	sort.SliceStable(roster.Receipts, func(i, j int) bool {
		a, b := roster.Receipts[i], roster.Receipts[j]
		if a.Status != b.Status {
			return a.Status == dto.ReceiptPending
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return roster, nil
}

// Present decorates items for viewer using a single visit baseline.
func (s *CircularService) Present(ctx context.Context, viewer models.Viewer, items []models.Communication) []dto.CircularResponse {
	baseline := s.baseline(ctx, viewer.ID)
	now := s.now()
	out := make([]dto.CircularResponse, 0, len(items))
	for _, item := range items {
		out = append(out, present(item, viewer, baseline, now))
	}
	return out
}

// Detail decorates one item and resolves its individual targets.
func (s *CircularService) Detail(ctx context.Context, viewer models.Viewer, item models.Communication) dto.CircularDetail {
	return *s.detail(ctx, viewer, item)
}

func (s *CircularService) detail(ctx context.Context, viewer models.Viewer, item models.Communication) *dto.CircularDetail {
	out := &dto.CircularDetail{CircularResponse: s.presentOne(ctx, viewer, item), TargetUsers: []dto.TargetUser{}}
	if len(item.TargetUserIDs) == 0 {
		return out
	}
	byID := map[string]models.DirectoryUser{}
	if users, err := s.directoryUsers(ctx); err == nil {
		for _, u := range users {
			byID[u.ID] = u
		}
	} else {
		s.logger.Warn("failed to resolve target users", zap.String("circular_id", item.ID), zap.Error(err))
	}
	for _, uid := range item.TargetUserIDs {
		if u, ok := byID[uid]; ok {
			out.TargetUsers = append(out.TargetUsers, dto.TargetUser{ID: u.ID, Name: u.Name, Role: u.Role})
			continue
		}
		out.TargetUsers = append(out.TargetUsers, dto.TargetUser{ID: uid, Name: uid})
	}
	return out
}

func (s *CircularService) presentOne(ctx context.Context, viewer models.Viewer, item models.Communication) dto.CircularResponse {
	return present(item, viewer, s.baseline(ctx, viewer.ID), s.now())
}

func present(item models.Communication, viewer models.Viewer, baseline *time.Time, now time.Time) dto.CircularResponse {
	resp := dto.CircularResponse{
		Communication:   item,
		PublishedAgo:    circular.RelativeTime(item.PublishedAt, now),
		IsNew:           circular.IsNew(item.PublishedAt, baseline),
		Acknowledged:    item.HasAcknowledged(viewer.ID),
		MustAcknowledge: circular.MustAcknowledge(item, viewer),
		CanEdit:         circular.CanEdit(item, viewer),
	}
	if ack, total, tracked := circular.Progress(item); tracked {
		resp.Progress = &dto.ProgressResponse{Acknowledged: ack, Total: total}
	}
	return resp
}

func (s *CircularService) baseline(ctx context.Context, viewerID string) *time.Time {
	if s.visits == nil {
		return nil
	}
	return s.visits.Baseline(ctx, viewerID)
}

func (s *CircularService) loadAll(ctx context.Context) ([]models.Communication, error) {
	start := time.Now()
	items, err := s.store.List(ctx)
	s.metrics.ObserveStoreCall("list", err, time.Since(start))
	if err != nil {
		s.logger.Error("failed to load communications", zap.Error(err))
		return nil, fetchFailed(err)
	}
	return items, nil
}

func (s *CircularService) getItem(ctx context.Context, id string) (*models.Communication, error) {
	start := time.Now()
	item, err := s.store.Get(ctx, id)
	s.metrics.ObserveStoreCall("get", err, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
		}
		return nil, fetchFailed(err)
	}
	return item, nil
}

func (s *CircularService) visibleItem(ctx context.Context, viewer models.Viewer, id string) (*models.Communication, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !circular.IsVisible(*item, viewer) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "circular not found")
	}
	return item, nil
}

// validateDraft normalizes draft and reports every failed rule, including
// individual targets that match nobody in the directory.
func (s *CircularService) validateDraft(ctx context.Context, draft models.CommunicationDraft) (models.CommunicationDraft, error) {
	draft = circular.NormalizeDraft(draft)
	var details []string
	var verr *circular.ValidationError
	if err := circular.Validate(draft); err != nil {
		if !errors.As(err, &verr) {
			return draft, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate communication")
		}
		details = verr.Details()
	}
	if s.directory != nil && len(draft.TargetUserIDs) > 0 {
		users, err := s.directoryUsers(ctx)
		if err != nil {
			return draft, err
		}
		known := make(map[string]struct{}, len(users))
		for _, u := range users {
			known[u.ID] = struct{}{}
		}
		for _, uid := range draft.TargetUserIDs {
			if _, ok := known[uid]; !ok {
				details = append(details, "target_user_ids: unknown user "+uid)
			}
		}
	}
	if len(details) > 0 {
		s.metrics.ValidationFailed()
		return draft, appErrors.WithDetails(appErrors.ErrValidation, "invalid communication", details)
	}
	return draft, nil
}

func (s *CircularService) audienceSize(ctx context.Context, draft models.CommunicationDraft, authorID string) int {
	if s.directory == nil {
		return 0
	}
	users, err := s.directoryUsers(ctx)
	if err != nil {
		return 0
	}
	probe := models.Communication{PublishedByID: authorID, TargetRoles: draft.TargetRoles, TargetUserIDs: draft.TargetUserIDs}
	size := 0
	for _, u := range users {
		if inAudience(probe, u) {
			size++
		}
	}
	return size
}

func (s *CircularService) directoryUsers(ctx context.Context) ([]models.DirectoryUser, error) {
	if s.directory == nil {
		return nil, nil
	}
	users, err := s.directory.List(ctx, models.DirectoryFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load directory")
	}
	return users, nil
}

func (s *CircularService) afterWrite(ctx context.Context, viewer models.Viewer, action models.ActivityAction, item models.Communication) {
	s.cache.Invalidate(ctx, statsCachePrefix+"*")
	if s.activity != nil {
		s.activity.Record(viewer, action, item)
	}
}

// inAudience reports whether u is expected to acknowledge item.
func inAudience(item models.Communication, u models.DirectoryUser) bool {
	if u.Role == models.RoleSystemAdmin || u.ID == item.PublishedByID {
		return false
	}
	return circular.IsVisible(item, u.Viewer())
}

func receiptFor(u models.DirectoryUser, acknowledged, audience bool) dto.Receipt {
	status := dto.ReceiptPending
	if acknowledged {
		status = dto.ReceiptAcknowledged
	}
	return dto.Receipt{UserID: u.ID, Name: u.Name, Role: u.Role, Unit: u.Unit, Status: status, InAudience: audience}
}

func fetchFailed(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrFetchFailed.Code {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
}

func writeFailed(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, message)
}
