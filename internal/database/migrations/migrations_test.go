package migrations

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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestMigrator_Up_AppliesAllAndIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	m := NewMigrator(db, nil)
	m.RegisterAll(AllMigrations())

	require.NoError(t, m.Up(context.Background()))
	require.True(t, db.Migrator().HasTable(&models.Camera{}))
	require.True(t, db.Migrator().HasTable(&models.Recording{}))
	require.True(t, db.Migrator().HasTable(&models.EncoderSettings{}))
	require.True(t, db.Migrator().HasTable(&models.RecordingSchedule{}))

	var count int64
	require.NoError(t, db.Model(&models.EncoderSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Running Up again must not re-apply or error.
	require.NoError(t, m.Up(context.Background()))
	require.NoError(t, db.Model(&models.EncoderSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrator_Status_ReflectsAppliedState(t *testing.T) {
	db := newTestDB(t)
	m := NewMigrator(db, nil)
	m.RegisterAll(AllMigrations())

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.False(t, s.Applied)
		assert.Nil(t, s.AppliedAt)
	}

	require.NoError(t, m.Up(context.Background()))

	statuses, err = m.Status(context.Background())
	require.NoError(t, err)
	for _, s := range statuses {
		assert.True(t, s.Applied)
		assert.NotNil(t, s.AppliedAt)
	}
}

func TestMigrator_Pending_EmptyAfterUp(t *testing.T) {
	db := newTestDB(t)
	m := NewMigrator(db, nil)
	m.RegisterAll(AllMigrations())

	pending, err := m.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, m.Up(context.Background()))

	pending, err = m.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrator_Down_RollsBackLastMigration(t *testing.T) {
	db := newTestDB(t)
	m := NewMigrator(db, nil)
	m.RegisterAll(AllMigrations())
	require.NoError(t, m.Up(context.Background()))

	require.NoError(t, m.Down(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.EncoderSettings{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Tables from migration 001 are untouched since only 002 was rolled back.
	assert.True(t, db.Migrator().HasTable(&models.Camera{}))

	pending, err := m.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "002", pending[0].Version)
}

func TestMigrator_Down_NoMigrationsIsNoOp(t *testing.T) {
	db := newTestDB(t)
	m := NewMigrator(db, nil)
	m.RegisterAll(AllMigrations())

	require.NoError(t, m.Down(context.Background()))
}
