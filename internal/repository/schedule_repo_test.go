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

func setupScheduleTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.RecordingSchedule{}))
	return db
}

func TestScheduleRepo_Create_CanonicalizesCron(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	sched := &models.RecordingSchedule{
		CameraID:        1,
		Name:            "nightly",
		Cron:            "0 22 * * *",
		DurationMinutes: 60,
		IsEnabled:       true,
	}
	require.NoError(t, repo.Create(ctx, sched))
	assert.Equal(t, "0 0 22 * * *", sched.Cron)

	found, err := repo.GetByID(ctx, sched.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "0 0 22 * * *", found.Cron)
}

func TestScheduleRepo_Create_LeavesSixFieldCronAlone(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	sched := &models.RecordingSchedule{
		CameraID:        1,
		Name:            "precise",
		Cron:            "15 0 22 * * *",
		DurationMinutes: 30,
		IsEnabled:       true,
	}
	require.NoError(t, repo.Create(ctx, sched))
	assert.Equal(t, "15 0 22 * * *", sched.Cron)
}

func TestScheduleRepo_GetEnabled(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	enabled := &models.RecordingSchedule{CameraID: 1, Name: "on", Cron: "0 * * * *", DurationMinutes: 5, IsEnabled: true}
	disabled := &models.RecordingSchedule{CameraID: 1, Name: "off", Cron: "0 * * * *", DurationMinutes: 5, IsEnabled: false}
	require.NoError(t, repo.Create(ctx, enabled))
	require.NoError(t, repo.Create(ctx, disabled))

	found, err := repo.GetEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, enabled.ID, found[0].ID)
}

func TestScheduleRepo_Update_RecanonicalizesCron(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	sched := &models.RecordingSchedule{CameraID: 1, Name: "x", Cron: "0 * * * * *", DurationMinutes: 5, IsEnabled: true}
	require.NoError(t, repo.Create(ctx, sched))

	sched.Cron = "30 2 * * *"
	require.NoError(t, repo.Update(ctx, sched))
	assert.Equal(t, "0 30 2 * * *", sched.Cron)
}

func TestScheduleRepo_Delete(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	sched := &models.RecordingSchedule{CameraID: 1, Name: "gone", Cron: "0 * * * *", DurationMinutes: 5}
	require.NoError(t, repo.Create(ctx, sched))
	require.NoError(t, repo.Delete(ctx, sched.ID))

	found, err := repo.GetByID(ctx, sched.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
