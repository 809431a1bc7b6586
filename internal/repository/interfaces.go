// Package repository defines data access interfaces for camerad entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"

	"github.com/jmylchreest/camerad/internal/models"
)

// CameraRepository defines operations for camera persistence.
type CameraRepository interface {
	Create(ctx context.Context, camera *models.Camera) error
	GetByID(ctx context.Context, id uint) (*models.Camera, error)
	GetAll(ctx context.Context) ([]*models.Camera, error)
	Update(ctx context.Context, camera *models.Camera) error
	Delete(ctx context.Context, id uint) error
}

// RecordingRepository defines operations for recording persistence.
type RecordingRepository interface {
	// InsertPending creates a recording row with is_finished=false. Called
	// only after the transcoder child has successfully spawned.
	InsertPending(ctx context.Context, recording *models.Recording) error
	GetByID(ctx context.Context, id uint) (*models.Recording, error)
	// GetAll returns every recording row, finished and in-flight alike.
	GetAll(ctx context.Context) ([]*models.Recording, error)
	// GetActiveByCameraID returns the youngest is_finished=0 row for a camera, or nil.
	GetActiveByCameraID(ctx context.Context, cameraID uint) (*models.Recording, error)
	// GetActiveCameraIDs returns the camera ids with an in-flight recording.
	GetActiveCameraIDs(ctx context.Context) ([]uint, error)
	// Finalize commits the finalizer's single UPDATE: filename, thumbnail, end_time, is_finished=true.
	Finalize(ctx context.Context, id uint, filename string, thumbnail *string, endTime models.Time) error
	Delete(ctx context.Context, id uint) error
}

// EncoderSettingsRepository defines operations for the singleton encoder settings row.
type EncoderSettingsRepository interface {
	// Get returns the singleton row, seeding it with defaults if absent.
	Get(ctx context.Context) (*models.EncoderSettings, error)
	Update(ctx context.Context, patch *models.EncoderSettingsPatch) (*models.EncoderSettings, error)
}

// ScheduleRepository defines operations for recording schedule persistence.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.RecordingSchedule) error
	GetByID(ctx context.Context, id uint) (*models.RecordingSchedule, error)
	GetAll(ctx context.Context) ([]*models.RecordingSchedule, error)
	// GetEnabled returns the schedules to re-arm on startup.
	GetEnabled(ctx context.Context) ([]*models.RecordingSchedule, error)
	Update(ctx context.Context, schedule *models.RecordingSchedule) error
	Delete(ctx context.Context, id uint) error
}
