package repository

import (
	"context"
	"fmt"

	"github.com/jmylchreest/camerad/internal/models"
	"gorm.io/gorm"
)

// encoderSettingsRepo implements EncoderSettingsRepository using GORM.
type encoderSettingsRepo struct {
	db *gorm.DB
}

// NewEncoderSettingsRepository creates a new EncoderSettingsRepository.
func NewEncoderSettingsRepository(db *gorm.DB) *encoderSettingsRepo {
	return &encoderSettingsRepo{db: db}
}

// Get returns the singleton row, seeding it with defaults if absent.
func (r *encoderSettingsRepo) Get(ctx context.Context) (*models.EncoderSettings, error) {
	var settings models.EncoderSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.SingletonEncoderSettingsID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("getting encoder settings: %w", err)
	}

	seeded := models.DefaultEncoderSettings()
	if err := r.db.WithContext(ctx).Create(seeded).Error; err != nil {
		return nil, fmt.Errorf("seeding encoder settings: %w", err)
	}
	return seeded, nil
}

// Update applies a partial patch to the singleton row.
func (r *encoderSettingsRepo) Update(ctx context.Context, patch *models.EncoderSettingsPatch) (*models.EncoderSettings, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("empty encoder settings patch")
	}

	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.EncoderMode != nil {
		updates["encoder_mode"] = *patch.EncoderMode
	}
	if patch.GPUEncoder != nil {
		updates["gpu_encoder"] = *patch.GPUEncoder
	}
	if patch.CPUEncoder != nil {
		updates["cpu_encoder"] = *patch.CPUEncoder
	}
	if patch.Preset != nil {
		updates["preset"] = *patch.Preset
	}
	if patch.Quality != nil {
		updates["quality"] = *patch.Quality
	}

	if err := r.db.WithContext(ctx).Model(&models.EncoderSettings{}).
		Where("id = ?", models.SingletonEncoderSettingsID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating encoder settings: %w", err)
	}

	return r.Get(ctx)
}

var _ EncoderSettingsRepository = (*encoderSettingsRepo)(nil)
