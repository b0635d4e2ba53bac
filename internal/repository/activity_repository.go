package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/dims-api/internal/models"
)

const activityKey = "dims:activity"

// ActivityRepository keeps the capped recent-activity feed, newest first,
// in a Redis list or in memory when no client is configured.
type ActivityRepository struct {
	client *redis.Client
	max    int

	mu     sync.Mutex
	memory []models.Activity
}

// NewActivityRepository builds the feed store capped at max entries.
func NewActivityRepository(client *redis.Client, max int) *ActivityRepository {
	if max <= 0 {
		max = 50
	}
	return &ActivityRepository{client: client, max: max}
}

// Push records one activity and trims the feed to its cap.
func (r *ActivityRepository) Push(ctx context.Context, activity models.Activity) error {
	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.memory = append([]models.Activity{activity}, r.memory...)
		if len(r.memory) > r.max {
			r.memory = r.memory[:r.max]
		}
		return nil
	}

	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity %s: %w", activity.ID, err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, activityKey, payload)
		pipe.LTrim(ctx, activityKey, 0, int64(r.max-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > r.max {
		limit = r.max
	}

	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if limit > len(r.memory) {
			limit = len(r.memory)
		}
		return append([]models.Activity{}, r.memory[:limit]...), nil
	}

	raw, err := r.client.LRange(ctx, activityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read activity: %w", err)
	}
	out := make([]models.Activity, 0, len(raw))
	for _, entry := range raw {
		var activity models.Activity
		if err := json.Unmarshal([]byte(entry), &activity); err != nil {
			continue
		}
		out = append(out, activity)
	}
	return out, nil
}
