package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/fixtures"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

func TestDirectoryRepositoryFilters(t *testing.T) {
	repo := NewDirectoryRepository(fixtures.DirectoryUsers())
	ctx := context.Background()

	staff, err := repo.List(ctx, models.DirectoryFilter{Role: models.RoleStaff})
	require.NoError(t, err)
	require.Len(t, staff, 3)
	assert.Equal(t, "Alice Johnson", staff[0].Name)

	found, err := repo.List(ctx, models.DirectoryFilter{Search: "academics"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u4", found[0].ID)

	user, err := repo.GetByID(ctx, "u7")
	require.NoError(t, err)
	assert.Equal(t, "Frank Blue", user.Name)

	_, err = repo.GetByID(ctx, "u99")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Equal(t, "u6", repo.IDByName("Eve Black"))
	assert.Empty(t, repo.IDByName("Nobody"))
}
