package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const visitKeyPrefix = "dims:visit:"

// VisitRepository remembers when each viewer last opened the board.
type VisitRepository struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	memory map[string]time.Time
}

// NewVisitRepository builds the store. Redis entries expire after ttl when positive.
func NewVisitRepository(client *redis.Client, ttl time.Duration) *VisitRepository {
	return &VisitRepository{client: client, ttl: ttl, memory: make(map[string]time.Time)}
}

// Touch stores now as the viewer's last visit and returns the previous one,
// or nil on a first visit.
func (r *VisitRepository) Touch(ctx context.Context, viewerID string, now time.Time) (*time.Time, error) {
	now = now.UTC()
	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		prev, ok := r.memory[viewerID]
		r.memory[viewerID] = now
		if !ok {
			return nil, nil
		}
		return &prev, nil
	}

	key := visitKeyPrefix + viewerID
	raw, err := r.client.GetSet(ctx, key, now.Format(time.RFC3339Nano)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis touch visit %s: %w", viewerID, err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis expire visit %s: %w", viewerID, err)
		}
	}
	if errors.Is(err, redis.Nil) || raw == "" {
		return nil, nil
	}
	prev, perr := time.Parse(time.RFC3339Nano, raw)
	if perr != nil {
		return nil, nil
	}
	return &prev, nil
}

// Last returns the stored visit without updating it.
func (r *VisitRepository) Last(ctx context.Context, viewerID string) (*time.Time, error) {
	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		prev, ok := r.memory[viewerID]
		if !ok {
			return nil, nil
		}
		return &prev, nil
	}

	raw, err := r.client.Get(ctx, visitKeyPrefix+viewerID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis read visit %s: %w", viewerID, err)
	}
	prev, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, nil
	}
	return &prev, nil
}
