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

func setupEncoderSettingsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.EncoderSettings{}))
	return db
}

func TestEncoderSettingsRepo_Get_SeedsOnFirstCall(t *testing.T) {
	db := setupEncoderSettingsTestDB(t)
	repo := NewEncoderSettingsRepository(db)
	ctx := context.Background()

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, uint(models.SingletonEncoderSettingsID), settings.ID)
	assert.Equal(t, models.EncoderModeAuto, settings.EncoderMode)
	assert.Equal(t, "libx264", settings.CPUEncoder)

	var count int64
	require.NoError(t, db.Model(&models.EncoderSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
	require.NoError(t, db.Model(&models.EncoderSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "second Get must not reseed")
}

func TestEncoderSettingsRepo_Update(t *testing.T) {
	db := setupEncoderSettingsTestDB(t)
	repo := NewEncoderSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx) // seed
	require.NoError(t, err)

	newPreset := "veryfast"
	updated, err := repo.Update(ctx, &models.EncoderSettingsPatch{Preset: &newPreset})
	require.NoError(t, err)
	assert.Equal(t, "veryfast", updated.Preset)
	assert.Equal(t, "libx264", updated.CPUEncoder, "unpatched fields are left unchanged")
}

func TestEncoderSettingsRepo_Update_RejectsEmptyPatch(t *testing.T) {
	db := setupEncoderSettingsTestDB(t)
	repo := NewEncoderSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.Update(ctx, &models.EncoderSettingsPatch{})
	assert.Error(t, err)
}
