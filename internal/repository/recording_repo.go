package repository

import (
	"context"
	"fmt"

	"github.com/jmylchreest/camerad/internal/models"
	"gorm.io/gorm"
)

// recordingRepo implements RecordingRepository using GORM.
type recordingRepo struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new RecordingRepository.
func NewRecordingRepository(db *gorm.DB) *recordingRepo {
	return &recordingRepo{db: db}
}

func (r *recordingRepo) InsertPending(ctx context.Context, recording *models.Recording) error {
	recording.IsFinished = false
	if err := r.db.WithContext(ctx).Create(recording).Error; err != nil {
		return fmt.Errorf("inserting pending recording: %w", err)
	}
	return nil
}

func (r *recordingRepo) GetByID(ctx context.Context, id uint) (*models.Recording, error) {
	var recording models.Recording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recording).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting recording by id: %w", err)
	}
	return &recording, nil
}

// GetAll returns every recording row, including in-flight ones, per the
// source behavior preserved for get_recordings.
func (r *recordingRepo) GetAll(ctx context.Context) ([]*models.Recording, error) {
	var recordings []*models.Recording
	if err := r.db.WithContext(ctx).Order("start_time DESC").Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("getting all recordings: %w", err)
	}
	return recordings, nil
}

func (r *recordingRepo) GetActiveByCameraID(ctx context.Context, cameraID uint) (*models.Recording, error) {
	var recording models.Recording
	err := r.db.WithContext(ctx).
		Where("camera_id = ? AND is_finished = ?", cameraID, false).
		Order("start_time DESC").
		First(&recording).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting active recording for camera: %w", err)
	}
	return &recording, nil
}

func (r *recordingRepo) GetActiveCameraIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Recording{}).
		Where("is_finished = ?", false).
		Distinct().
		Pluck("camera_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("getting active recording camera ids: %w", err)
	}
	return ids, nil
}

func (r *recordingRepo) Finalize(ctx context.Context, id uint, filename string, thumbnail *string, endTime models.Time) error {
	updates := map[string]any{
		"filename":    filename,
		"thumbnail":   thumbnail,
		"end_time":    endTime,
		"is_finished": true,
	}
	if err := r.db.WithContext(ctx).Model(&models.Recording{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("finalizing recording: %w", err)
	}
	return nil
}

func (r *recordingRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.Recording{}).Error; err != nil {
		return fmt.Errorf("deleting recording: %w", err)
	}
	return nil
}

var _ RecordingRepository = (*recordingRepo)(nil)
