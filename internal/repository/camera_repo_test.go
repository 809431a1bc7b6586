package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmylchreest/camerad/internal/models"
)

func setupCameraTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Camera{}))
	return db
}

func TestCameraRepo_Create(t *testing.T) {
	db := setupCameraTestDB(t)
	repo := NewCameraRepository(db)
	ctx := context.Background()

	camera := &models.Camera{
		Name:    "front door",
		Backend: models.BackendONVIF,
		Host:    "192.168.1.50",
		Port:    80,
	}

	require.NoError(t, repo.Create(ctx, camera))
	assert.NotZero(t, camera.ID)

	found, err := repo.GetByID(ctx, camera.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, camera.Name, found.Name)
	assert.Equal(t, models.BackendONVIF, found.Backend)
}

func TestCameraRepo_GetByID(t *testing.T) {
	db := setupCameraTestDB(t)
	repo := NewCameraRepository(db)
	ctx := context.Background()

	camera := &models.Camera{Name: "garage", Backend: models.BackendRTSP, Host: "10.0.0.5"}
	require.NoError(t, repo.Create(ctx, camera))

	t.Run("existing camera", func(t *testing.T) {
		found, err := repo.GetByID(ctx, camera.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, camera.ID, found.ID)
	})

	t.Run("missing camera returns nil, nil", func(t *testing.T) {
		found, err := repo.GetByID(ctx, camera.ID+999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestCameraRepo_GetAll_OrderedByID(t *testing.T) {
	db := setupCameraTestDB(t)
	repo := NewCameraRepository(db)
	ctx := context.Background()

	names := []string{"c", "a", "b"}
	for _, n := range names {
		require.NoError(t, repo.Create(ctx, &models.Camera{Name: n, Backend: models.BackendUVC}))
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, "b", all[2].Name)
	assert.True(t, all[0].ID < all[1].ID)
	assert.True(t, all[1].ID < all[2].ID)
}

func TestCameraRepo_Update(t *testing.T) {
	db := setupCameraTestDB(t)
	repo := NewCameraRepository(db)
	ctx := context.Background()

	camera := &models.Camera{Name: "original", Backend: models.BackendRTSP}
	require.NoError(t, repo.Create(ctx, camera))

	camera.Name = "renamed"
	require.NoError(t, repo.Update(ctx, camera))

	found, err := repo.GetByID(ctx, camera.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Name)
}

func TestCameraRepo_Delete(t *testing.T) {
	db := setupCameraTestDB(t)
	repo := NewCameraRepository(db)
	ctx := context.Background()

	camera := &models.Camera{Name: "to delete", Backend: models.BackendRTSP}
	require.NoError(t, repo.Create(ctx, camera))

	require.NoError(t, repo.Delete(ctx, camera.ID))

	found, err := repo.GetByID(ctx, camera.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
