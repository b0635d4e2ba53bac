package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type visitRepository interface {
	Touch(ctx context.Context, viewerID string, now time.Time) (*time.Time, error)
	Last(ctx context.Context, viewerID string) (*time.Time, error)
}

// VisitService tracks the "new since last visit" baseline per viewer.
// Touch moves the stored visit forward; the previous value stays the
// baseline for this process until the next Touch so badges do not vanish
// on the first refresh.
type VisitService struct {
	repo   visitRepository
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	baselines map[string]*time.Time
}

// NewVisitService constructs a VisitService.
func NewVisitService(repo visitRepository, logger *zap.Logger) *VisitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitService{repo: repo, logger: logger, now: time.Now, baselines: make(map[string]*time.Time)}
}

// Touch records a visit now and returns the previous one, nil on a first visit.
func (s *VisitService) Touch(ctx context.Context, viewerID string) (*time.Time, error) {
	prev, err := s.repo.Touch(ctx, viewerID, s.now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.baselines[viewerID] = prev
	s.mu.Unlock()
	return prev, nil
}

// Baseline returns the instant items must be newer than to count as new.
// A nil result means every item is new.
func (s *VisitService) Baseline(ctx context.Context, viewerID string) *time.Time {
	s.mu.RLock()
	prev, ok := s.baselines[viewerID]
	s.mu.RUnlock()
	if ok {
		return prev
	}

	last, err := s.repo.Last(ctx, viewerID)
	if err != nil {
		s.logger.Warn("failed to load last visit", zap.String("viewer_id", viewerID), zap.Error(err))
		return nil
	}
	return last
}
