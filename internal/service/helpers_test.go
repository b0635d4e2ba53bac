package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/fixtures"
	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/internal/repository"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

var (
	root    = models.Viewer{ID: "u0", Name: "System Root", Role: models.RoleSystemAdmin}
	admin   = models.Viewer{ID: "u1", Name: "Admin User", Role: models.RoleDivisionAdmin}
	alice   = models.Viewer{ID: "u2", Name: "Alice Johnson", Role: models.RoleStaff}
	bob     = models.Viewer{ID: "u3", Name: "Bob Williams", Role: models.RoleStaff}
	carol   = models.Viewer{ID: "u4", Name: "Dr. Carol White", Role: models.RoleFaculty}
	frank   = models.Viewer{ID: "u7", Name: "Frank Blue", Role: models.RoleDivisionAdmin}
	testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func seedItem(id string, daysAgo int, mutate ...func(*models.Communication)) models.Communication {
	c := models.Communication{
		ID:              id,
		Title:           "Notice " + id,
		Content:         "Body of " + id,
		Category:        models.CategoryCircular,
		Priority:        models.PriorityNormal,
		PublishedByID:   admin.ID,
		PublishedBy:     admin.Name,
		PublishedAt:     testNow.AddDate(0, 0, -daysAgo),
		AcknowledgedBy:  []string{},
		TotalRecipients: 3,
		Attachments:     []string{id + ".pdf"},
		History:         []models.HistoryEntry{},
		TargetRoles:     []models.UserRole{models.RoleStaff},
		TargetUserIDs:   []string{},
	}
	for _, fn := range mutate {
		fn(&c)
	}
	return c
}

type activityStub struct {
	mu      sync.Mutex
	actions []models.ActivityAction
}

func (a *activityStub) Record(actor models.Viewer, action models.ActivityAction, item models.Communication) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func (a *activityStub) recorded() []models.ActivityAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ActivityAction(nil), a.actions...)
}

type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) List(ctx context.Context) ([]models.Communication, error) {
	return nil, errStoreDown
}
func (failingStore) Get(ctx context.Context, id string) (*models.Communication, error) {
	return nil, errStoreDown
}
func (failingStore) Create(ctx context.Context, item models.Communication) (models.Communication, error) {
	return item, errStoreDown
}
func (failingStore) Update(ctx context.Context, item models.Communication) (models.Communication, error) {
	return item, errStoreDown
}

// plainStore hides AddAcknowledgement so the locked read-modify-write path runs.
type plainStore struct {
	inner *repository.MemoryCircularRepository
}

func (p plainStore) List(ctx context.Context) ([]models.Communication, error) {
	return p.inner.List(ctx)
}
func (p plainStore) Get(ctx context.Context, id string) (*models.Communication, error) {
	return p.inner.Get(ctx, id)
}
func (p plainStore) Create(ctx context.Context, item models.Communication) (models.Communication, error) {
	return p.inner.Create(ctx, item)
}
func (p plainStore) Update(ctx context.Context, item models.Communication) (models.Communication, error) {
	return p.inner.Update(ctx, item)
}

type circularEnv struct {
	svc      *CircularService
	store    *repository.MemoryCircularRepository
	activity *activityStub
	metrics  *MetricsService
}

func newCircularEnv(t *testing.T, items ...models.Communication) *circularEnv {
	t.Helper()
	store := repository.NewMemoryCircularRepository(items)
	env := &circularEnv{store: store, activity: &activityStub{}, metrics: NewMetricsService()}
	env.svc = NewCircularService(store, CircularDeps{
		Directory: repository.NewDirectoryRepository(fixtures.DirectoryUsers()),
		Activity:  env.activity,
		Metrics:   env.metrics,
	}, CircularConfig{ArchivePageSize: 2})
	env.svc.now = func() time.Time { return testNow }
	return env
}

func requireCode(t *testing.T, err error, want *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "unexpected error type %T", err)
	require.Equal(t, want.Code, appErr.Code)
	return appErr
}
