package models

// RecordingSchedule fires a bounded-duration recording by cron expression.
// The Cron field is canonicalized to 6 fields (seconds prepended) before
// persistence.
type RecordingSchedule struct {
	BaseModel

	CameraID uint   `gorm:"not null;index" json:"camera_id"`
	Name     string `gorm:"not null" json:"name"`

	// Cron is the 6-field (with seconds) canonical cron expression.
	Cron string `gorm:"not null" json:"cron"`

	DurationMinutes int  `gorm:"not null" json:"duration_minutes"`
	TargetFPS       *int `json:"target_fps,omitempty"`

	IsEnabled bool `gorm:"not null;default:true;index" json:"is_enabled"`
}

// TableName returns the table name for recording_schedules.
func (RecordingSchedule) TableName() string {
	return "recording_schedules"
}

// NewRecordingSchedule is the input shape for add_recording_schedule; Cron
// may be given in 5-field or 6-field form and is canonicalized by the
// repository before the row is persisted.
type NewRecordingSchedule struct {
	CameraID        uint   `json:"camera_id"`
	Name            string `json:"name"`
	Cron            string `json:"cron"`
	DurationMinutes int    `json:"duration_minutes"`
	TargetFPS       *int   `json:"target_fps,omitempty"`
	IsEnabled       bool   `json:"is_enabled"`
}

// RecordingSchedulePatch is a partial update; nil fields are left unchanged.
type RecordingSchedulePatch struct {
	Name            *string `json:"name,omitempty"`
	Cron            *string `json:"cron,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	TargetFPS       *int    `json:"target_fps,omitempty"`
	IsEnabled       *bool   `json:"is_enabled,omitempty"`
}

// IsEmpty reports whether the patch carries no fields to apply.
func (p *RecordingSchedulePatch) IsEmpty() bool {
	return p.Name == nil && p.Cron == nil && p.DurationMinutes == nil &&
		p.TargetFPS == nil && p.IsEnabled == nil
}

// CanonicalizeCron prepends "0 " to a 5-field cron expression; a 6-field
// expression is returned verbatim. Callers must validate field count before
// calling (CanonicalizeCron does not itself reject malformed input).
func CanonicalizeCron(expr string) string {
	fields := splitFields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}

// CronFieldCount returns the number of whitespace-separated fields in a cron
// expression, for validating 5-field vs 6-field input before canonicalizing.
func CronFieldCount(expr string) int {
	return len(splitFields(expr))
}

func splitFields(expr string) []string {
	var fields []string
	start := -1
	for i, r := range expr {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, expr[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, expr[start:])
	}
	return fields
}
