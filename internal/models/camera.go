package models

// BackendType identifies which plugin owns a camera.
type BackendType string

const (
	BackendONVIF BackendType = "onvif"
	BackendRTSP  BackendType = "rtsp"
	BackendUVC   BackendType = "uvc"
)

// Camera is a persistent descriptor of one video source, served either by
// the ONVIF plugin, a plain RTSP URL, or a local UVC device.
type Camera struct {
	BaseModel

	Name    string      `gorm:"not null" json:"name"`
	Backend BackendType `gorm:"column:backend;not null;index" json:"backend"`

	Host string `json:"host"`
	Port int    `json:"port"`

	User *string `json:"user,omitempty"`
	Pass *string `json:"pass,omitempty"`

	// XAddr is the ONVIF device-service URL. Required for any ONVIF
	// operation other than discovery.
	XAddr *string `json:"xaddr,omitempty"`

	// StreamPath is the RTSP path component for the rtsp backend, e.g. "/live".
	StreamPath *string `json:"stream_path,omitempty"`

	// UVC locators. Exactly one is populated per uvc row.
	DevicePath  *string `json:"device_path,omitempty"`
	DeviceName  *string `json:"device_name,omitempty"`
	DeviceIndex *int    `json:"device_index,omitempty"`

	// UVC capture parameters, selected by the enumerator's best-format scan.
	VideoFormat *string `json:"video_format,omitempty"`
	VideoWidth  *int    `json:"video_width,omitempty"`
	VideoHeight *int    `json:"video_height,omitempty"`
	VideoFPS    *int    `json:"video_fps,omitempty"`
}

// TableName returns the table name for cameras.
func (Camera) TableName() string {
	return "cameras"
}

// HasUVCLocator reports whether at least one UVC locator is populated, as
// required for uvc-backend rows.
func (c *Camera) HasUVCLocator() bool {
	return c.DevicePath != nil || c.DeviceName != nil || c.DeviceIndex != nil
}

// NewCamera is the unwritten projection of a Camera submitted by a client or
// produced by plugin discovery: no id, no timestamps.
type NewCamera struct {
	Name    string      `json:"name"`
	Backend BackendType `json:"backend"`

	Host string `json:"host"`
	Port int    `json:"port"`

	User *string `json:"user,omitempty"`
	Pass *string `json:"pass,omitempty"`

	XAddr      *string `json:"xaddr,omitempty"`
	StreamPath *string `json:"stream_path,omitempty"`

	DevicePath  *string `json:"device_path,omitempty"`
	DeviceName  *string `json:"device_name,omitempty"`
	DeviceIndex *int    `json:"device_index,omitempty"`

	VideoFormat *string `json:"video_format,omitempty"`
	VideoWidth  *int    `json:"video_width,omitempty"`
	VideoHeight *int    `json:"video_height,omitempty"`
	VideoFPS    *int    `json:"video_fps,omitempty"`
}

// ToCamera converts the unwritten projection into a persistable Camera row.
func (n *NewCamera) ToCamera() *Camera {
	return &Camera{
		Name:        n.Name,
		Backend:     n.Backend,
		Host:        n.Host,
		Port:        n.Port,
		User:        n.User,
		Pass:        n.Pass,
		XAddr:       n.XAddr,
		StreamPath:  n.StreamPath,
		DevicePath:  n.DevicePath,
		DeviceName:  n.DeviceName,
		DeviceIndex: n.DeviceIndex,
		VideoFormat: n.VideoFormat,
		VideoWidth:  n.VideoWidth,
		VideoHeight: n.VideoHeight,
		VideoFPS:    n.VideoFPS,
	}
}
