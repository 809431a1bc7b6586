package repository

import (
	"context"
	"fmt"

	"github.com/jmylchreest/camerad/internal/models"
	"gorm.io/gorm"
)

// cameraRepo implements CameraRepository using GORM.
type cameraRepo struct {
	db *gorm.DB
}

// NewCameraRepository creates a new CameraRepository.
func NewCameraRepository(db *gorm.DB) *cameraRepo {
	return &cameraRepo{db: db}
}

func (r *cameraRepo) Create(ctx context.Context, camera *models.Camera) error {
	if err := r.db.WithContext(ctx).Create(camera).Error; err != nil {
		return fmt.Errorf("creating camera: %w", err)
	}
	return nil
}

func (r *cameraRepo) GetByID(ctx context.Context, id uint) (*models.Camera, error) {
	var camera models.Camera
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&camera).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting camera by id: %w", err)
	}
	return &camera, nil
}

func (r *cameraRepo) GetAll(ctx context.Context) ([]*models.Camera, error) {
	var cameras []*models.Camera
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cameras).Error; err != nil {
		return nil, fmt.Errorf("getting all cameras: %w", err)
	}
	return cameras, nil
}

func (r *cameraRepo) Update(ctx context.Context, camera *models.Camera) error {
	if err := r.db.WithContext(ctx).Save(camera).Error; err != nil {
		return fmt.Errorf("updating camera: %w", err)
	}
	return nil
}

// Delete hard-deletes a camera by id. Does not cascade-stop any live
// stream/recording or delete dependent recording rows.
func (r *cameraRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.Camera{}).Error; err != nil {
		return fmt.Errorf("deleting camera: %w", err)
	}
	return nil
}

var _ CameraRepository = (*cameraRepo)(nil)
