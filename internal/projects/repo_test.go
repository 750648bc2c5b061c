package projects

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProjectsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	projectsTable := `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  owner_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(projectsTable).Error)
	return conn
}

func TestCreateAndListForOwner(t *testing.T) {
	repo := NewRepository(setupProjectsTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	desc := "primary workspace"
	_, err := repo.Create(ctx, CreateProjectDTO{Name: "alpha", Description: &desc, OwnerID: owner})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateProjectDTO{Name: "beta", OwnerID: owner})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateProjectDTO{Name: "other", OwnerID: uuid.New()})
	require.NoError(t, err)

	rows, err := repo.ListForOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, owner, row.OwnerID)
	}
}

func TestDeleteOwnedEnforcesOwnership(t *testing.T) {
	repo := NewRepository(setupProjectsTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	project, err := repo.Create(ctx, CreateProjectDTO{Name: "guarded", OwnerID: owner})
	require.NoError(t, err)

	deleted, err := repo.DeleteOwned(ctx, project.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted, "foreign owner must not delete the project")

	deleted, err = repo.DeleteOwned(ctx, project.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteAllForOwnerCountsRows(t *testing.T) {
	repo := NewRepository(setupProjectsTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, CreateProjectDTO{Name: fmt.Sprintf("p%d", i), OwnerID: owner})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, CreateProjectDTO{Name: "keep", OwnerID: uuid.New()})
	require.NoError(t, err)

	count, err := repo.DeleteAllForOwner(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// idempotent: nothing left to delete
	count, err = repo.DeleteAllForOwner(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}
