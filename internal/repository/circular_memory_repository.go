package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

// MemoryCircularRepository keeps communications in process memory. Every read
// and write copies, so callers never share slices with the store.
type MemoryCircularRepository struct {
	mu    sync.RWMutex
	items map[string]models.Communication
	order []string
}

// NewMemoryCircularRepository builds a store seeded with the given items.
func NewMemoryCircularRepository(seed []models.Communication) *MemoryCircularRepository {
	r := &MemoryCircularRepository{items: make(map[string]models.Communication, len(seed))}
	for _, item := range seed {
		if _, exists := r.items[item.ID]; exists {
			continue
		}
		r.items[item.ID] = item.Clone()
		r.order = append(r.order, item.ID)
	}
	return r
}

// List returns every stored item, most recently created first.
func (r *MemoryCircularRepository) List(ctx context.Context) ([]models.Communication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Communication, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.items[r.order[i]].Clone())
	}
	return out, nil
}

// Get returns one item by id.
func (r *MemoryCircularRepository) Get(ctx context.Context, id string) (*models.Communication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	out := item.Clone()
	return &out, nil
}

// Create inserts item and echoes what was stored.
func (r *MemoryCircularRepository) Create(ctx context.Context, item models.Communication) (models.Communication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return models.Communication{}, appErrors.Clone(appErrors.ErrConflict, "communication already exists")
	}
	r.items[item.ID] = item.Clone()
	r.order = append(r.order, item.ID)
	return item.Clone(), nil
}

// Update replaces the stored item matching item.ID.
func (r *MemoryCircularRepository) Update(ctx context.Context, item models.Communication) (models.Communication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return models.Communication{}, appErrors.ErrNotFound
	}
	r.items[item.ID] = item.Clone()
	return item.Clone(), nil
}

// AddAcknowledgement adds viewerID to the item's acknowledgement set unless
// already present. It reports whether the set changed.
func (r *MemoryCircularRepository) AddAcknowledgement(ctx context.Context, id, viewerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return false, appErrors.ErrNotFound
	}
	if item.HasAcknowledged(viewerID) {
		return false, nil
	}
	item = item.Clone()
	item.AcknowledgedBy = append(item.AcknowledgedBy, viewerID)
	r.items[id] = item
	return true, nil
}
