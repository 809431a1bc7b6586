package models

import "time"

// Recording is a persistent row describing one recording attempt. It is
// created atomically immediately after the transcoder child has successfully
// spawned, and mutated exactly once by the finalizer.
type Recording struct {
	BaseModel

	CameraID uint `gorm:"not null;index" json:"camera_id"`

	// Filename starts as a temporary .ts name and is rewritten to the final
	// .mp4 name on finalize.
	Filename  string  `gorm:"not null" json:"filename"`
	Thumbnail *string `json:"thumbnail,omitempty"`

	StartTime  time.Time  `gorm:"not null" json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	IsFinished bool       `gorm:"not null;default:false;index" json:"is_finished"`
}

// TableName returns the table name for recordings.
func (Recording) TableName() string {
	return "recordings"
}
