// Package migrations provides database migration management for camerad.
package migrations

import (
	"github.com/jmylchreest/camerad/internal/models"
	"gorm.io/gorm"
)

// AllMigrations returns all registered migrations in order.
func AllMigrations() []Migration {
	return []Migration{
		migration001Schema(),
		migration002SeedEncoderSettings(),
	}
}

// migration001Schema creates all database tables using GORM AutoMigrate.
func migration001Schema() Migration {
	return Migration{
		Version:     "001",
		Description: "Create cameras, recordings, encoder_settings, recording_schedules",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Camera{},
				&models.Recording{},
				&models.EncoderSettings{},
				&models.RecordingSchedule{},
			)
		},
		Down: func(tx *gorm.DB) error {
			tables := []string{
				"recording_schedules",
				"encoder_settings",
				"recordings",
				"cameras",
			}
			for _, table := range tables {
				if tx.Migrator().HasTable(table) {
					if err := tx.Migrator().DropTable(table); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// migration002SeedEncoderSettings seeds the singleton encoder settings row
// with Auto / null gpu_encoder / libx264 / ultrafast / 23, as specified for
// first boot. The GPU probe fills gpu_encoder on startup iff still null.
func migration002SeedEncoderSettings() Migration {
	return Migration{
		Version:     "002",
		Description: "Seed singleton encoder settings row",
		Up: func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.EncoderSettings{}).
				Where("id = ?", models.SingletonEncoderSettingsID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			return tx.Create(models.DefaultEncoderSettings()).Error
		},
		Down: func(tx *gorm.DB) error {
			return tx.Unscoped().Where("id = ?", models.SingletonEncoderSettingsID).Delete(&models.EncoderSettings{}).Error
		},
	}
}
