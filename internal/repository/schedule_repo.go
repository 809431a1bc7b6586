package repository

import (
	"context"
	"fmt"

	"github.com/jmylchreest/camerad/internal/models"
	"gorm.io/gorm"
)

// scheduleRepo implements ScheduleRepository using GORM.
type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(db *gorm.DB) *scheduleRepo {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *models.RecordingSchedule) error {
	schedule.Cron = models.CanonicalizeCron(schedule.Cron)
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return fmt.Errorf("creating recording schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uint) (*models.RecordingSchedule, error) {
	var schedule models.RecordingSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&schedule).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting recording schedule by id: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetAll(ctx context.Context) ([]*models.RecordingSchedule, error) {
	var schedules []*models.RecordingSchedule
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("getting all recording schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepo) GetEnabled(ctx context.Context) ([]*models.RecordingSchedule, error) {
	var schedules []*models.RecordingSchedule
	if err := r.db.WithContext(ctx).Where("is_enabled = ?", true).Order("id ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("getting enabled recording schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *models.RecordingSchedule) error {
	schedule.Cron = models.CanonicalizeCron(schedule.Cron)
	if err := r.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return fmt.Errorf("updating recording schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.RecordingSchedule{}).Error; err != nil {
		return fmt.Errorf("deleting recording schedule: %w", err)
	}
	return nil
}

var _ ScheduleRepository = (*scheduleRepo)(nil)
