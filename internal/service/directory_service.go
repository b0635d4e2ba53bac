package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type directoryRepository interface {
	List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryUser, error)
	GetByID(ctx context.Context, id string) (*models.DirectoryUser, error)
}

// DirectoryService exposes the staff directory used for sign-in and targeting.
type DirectoryService struct {
	repo   directoryRepository
	logger *zap.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(repo directoryRepository, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, logger: logger}
}

// List returns directory users matching filter.
func (s *DirectoryService) List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryUser, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid directory filter", []string{"role: must be one of SYSTEM_ADMIN, DIVISION_ADMIN, STAFF, FACULTY"})
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list directory users")
	}
	return users, nil
}

// Get returns a single directory user.
func (s *DirectoryService) Get(ctx context.Context, id string) (*models.DirectoryUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "directory user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load directory user")
	}
	return user, nil
}

// GetByID satisfies lookups from other services.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (*models.DirectoryUser, error) {
	return s.Get(ctx, id)
}

// Resolve maps ids to users in the given order. Ids that match nobody are
// returned in missing.
func (s *DirectoryService) Resolve(ctx context.Context, ids []string) (users []models.DirectoryUser, missing []string, err error) {
	all, err := s.repo.List(ctx, models.DirectoryFilter{})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve directory users")
	}
	byID := make(map[string]models.DirectoryUser, len(all))
	for _, u := range all {
		byID[u.ID] = u
	}
	users = make([]models.DirectoryUser, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
			continue
		}
		missing = append(missing, id)
	}
	return users, missing, nil
}

// Candidates lists people that can still be added as individual targets:
// system admins already see everything, and members of a selected role are
// already covered.
func (s *DirectoryService) Candidates(ctx context.Context, selectedRoles []models.UserRole, search string) ([]models.DirectoryUser, error) {
	all, err := s.List(ctx, models.DirectoryFilter{Search: search})
	if err != nil {
		return nil, err
	}
	covered := make(map[models.UserRole]struct{}, len(selectedRoles)+1)
	covered[models.RoleSystemAdmin] = struct{}{}
	for _, r := range selectedRoles {
		covered[r] = struct{}{}
	}
	out := make([]models.DirectoryUser, 0, len(all))
	for _, u := range all {
		if _, ok := covered[u.Role]; ok {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
