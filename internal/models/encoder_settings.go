package models

// EncoderMode selects how the encoder selector chooses between GPU and CPU encoders.
type EncoderMode string

const (
	EncoderModeAuto    EncoderMode = "Auto"
	EncoderModeGpuOnly EncoderMode = "GpuOnly"
	EncoderModeCpuOnly EncoderMode = "CpuOnly"
)

// SingletonEncoderSettingsID is the fixed primary key of the one encoder
// settings row in the system.
const SingletonEncoderSettingsID = 1

// EncoderSettings is the singleton row (id pinned to 1) governing encoder
// selection across every stream and recording.
type EncoderSettings struct {
	BaseModel

	EncoderMode EncoderMode `gorm:"column:encoder_mode;not null" json:"encoder_mode"`
	GPUEncoder  *string     `gorm:"column:gpu_encoder" json:"gpu_encoder,omitempty"`
	CPUEncoder  string      `gorm:"column:cpu_encoder;not null" json:"cpu_encoder"`
	Preset      string      `gorm:"not null" json:"preset"`
	Quality     int         `gorm:"not null" json:"quality"`
}

// TableName returns the table name for encoder_settings.
func (EncoderSettings) TableName() string {
	return "encoder_settings"
}

// DefaultEncoderSettings returns the settings row as seeded on first boot.
func DefaultEncoderSettings() *EncoderSettings {
	return &EncoderSettings{
		BaseModel:   BaseModel{ID: SingletonEncoderSettingsID},
		EncoderMode: EncoderModeAuto,
		GPUEncoder:  nil,
		CPUEncoder:  "libx264",
		Preset:      "ultrafast",
		Quality:     23,
	}
}

// EncoderSettingsPatch is a partial update to EncoderSettings; nil fields are
// left unchanged.
type EncoderSettingsPatch struct {
	EncoderMode *EncoderMode `json:"encoder_mode,omitempty"`
	GPUEncoder  *string      `json:"gpu_encoder,omitempty"`
	CPUEncoder  *string      `json:"cpu_encoder,omitempty"`
	Preset      *string      `json:"preset,omitempty"`
	Quality     *int         `json:"quality,omitempty"`
}

// IsEmpty reports whether the patch carries no fields to apply.
func (p *EncoderSettingsPatch) IsEmpty() bool {
	return p.EncoderMode == nil && p.GPUEncoder == nil && p.CPUEncoder == nil &&
		p.Preset == nil && p.Quality == nil
}
