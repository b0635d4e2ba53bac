package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

// DirectoryRepository serves the staff directory from memory.
type DirectoryRepository struct {
	users []models.DirectoryUser
	byID  map[string]models.DirectoryUser
}

// NewDirectoryRepository indexes the given users by id.
func NewDirectoryRepository(users []models.DirectoryUser) *DirectoryRepository {
	r := &DirectoryRepository{byID: make(map[string]models.DirectoryUser, len(users))}
	for _, u := range users {
		if _, dup := r.byID[u.ID]; dup {
			continue
		}
		r.users = append(r.users, u)
		r.byID[u.ID] = u
	}
	return r
}

// List returns users matching the filter ordered by name.
func (r *DirectoryRepository) List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryUser, error) {
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.DirectoryUser, 0, len(r.users))
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.Unit), needle) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID returns one user.
func (r *DirectoryRepository) GetByID(ctx context.Context, id string) (*models.DirectoryUser, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &u, nil
}

// IDByName returns the id of the first user with the given display name.
func (r *DirectoryRepository) IDByName(name string) string {
	for _, u := range r.users {
		if u.Name == name {
			return u.ID
		}
	}
	return ""
}
