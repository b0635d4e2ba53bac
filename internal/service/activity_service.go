package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/jobs"
)

const (
	activityJobType      = "activity.record"
	defaultActivityLimit = 10
)

type activityRepository interface {
	Push(ctx context.Context, activity models.Activity) error
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// ActivityConfig sizes the background writer.
type ActivityConfig struct {
	Workers    int
	MaxRetries int
	BufferSize int
}

// ActivityService feeds the recent-activity list. Writes go through a job
// queue so publishing never waits on the activity store.
type ActivityService struct {
	repo    activityRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewActivityService wires the queue; call Start before recording.
func NewActivityService(repo activityRepository, cfg ActivityConfig, metrics *MetricsService, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ActivityService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
	s.queue = jobs.NewQueue("activity", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
		OnResult: func(job jobs.Job, err error) {
			metrics.ObserveJob(job.Type, err)
		},
	})
	return s
}

// Start launches the writer workers. Cancelling ctx does not stop them;
// Stop drains and tears the queue down.
func (s *ActivityService) Start(ctx context.Context) {
	s.queue.Start(context.WithoutCancel(ctx))
}

// Stop drains pending writes.
func (s *ActivityService) Stop(ctx context.Context) error {
	return s.queue.Stop(ctx)
}

// Record enqueues an activity entry. Failures are logged, never returned.
func (s *ActivityService) Record(actor models.Viewer, action models.ActivityAction, item models.Communication) {
	entry := models.Activity{
		ID:         uuid.NewString(),
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		Subject:    item.Title,
		SubjectID:  item.ID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(jobs.Job{Type: activityJobType, Payload: entry}); err != nil {
		s.logger.Warn("activity dropped",
			zap.String("viewer_id", actor.ID), zap.String("action", string(action)), zap.String("circular_id", item.ID), zap.Error(err))
	}
}

// Recent returns the latest entries, newest first.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent activity")
	}
	return entries, nil
}

func (s *ActivityService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.Activity)
	if !ok {
		return errors.New("unexpected activity payload")
	}
	if err := s.repo.Push(ctx, entry); err != nil {
		return fmt.Errorf("push activity %s: %w", entry.ID, err)
	}
	return nil
}
