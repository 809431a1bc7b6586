package localdevice

import (
	"context"
	"fmt"

	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
)

// Plugin implements plugin.CameraPlugin for the uvc backend. It supports
// neither PTZ nor time sync, so it embeds plugin.Unsupported for both.
type Plugin struct {
	plugin.Unsupported
}

// NewPlugin builds the UVC plugin.
func NewPlugin() *Plugin { return &Plugin{} }

func (p *Plugin) Type() models.BackendType { return models.BackendUVC }

func (p *Plugin) Discover(ctx context.Context) ([]*models.NewCamera, error) {
	devices, err := Enumerate(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.KindProtocolFailure, "uvc device enumeration failed", err)
	}

	cameras := make([]*models.NewCamera, 0, len(devices))
	for _, d := range devices {
		nc := &models.NewCamera{
			Name:    d.String(),
			Backend: models.BackendUVC,
		}
		switch {
		case d.Path != "":
			path := d.Path
			nc.DevicePath = &path
		case d.Name != "":
			name := d.Name
			nc.DeviceName = &name
		default:
			index := d.Index
			nc.DeviceIndex = &index
		}

		if d.BestFormat.PixelFormat != "" {
			format := d.BestFormat.PixelFormat
			width, height, fps := d.BestFormat.Width, d.BestFormat.Height, d.BestFormat.FPS
			nc.VideoFormat = &format
			nc.VideoWidth = &width
			nc.VideoHeight = &height
			nc.VideoFPS = &fps
		}

		cameras = append(cameras, nc)
	}
	return cameras, nil
}

// GetStreamURL returns the backend-specific locator verbatim: UVC inputs
// have no URL, just a device path/name/index the transcoder reads
// directly via its platform input format (v4l2/dshow/avfoundation).
func (p *Plugin) GetStreamURL(_ context.Context, camera *models.Camera) (string, error) {
	switch {
	case camera.DevicePath != nil:
		return *camera.DevicePath, nil
	case camera.DeviceName != nil:
		return *camera.DeviceName, nil
	case camera.DeviceIndex != nil:
		return fmt.Sprintf("%d", *camera.DeviceIndex), nil
	default:
		return "", domain.New(domain.KindValidation, "uvc camera has no device locator configured")
	}
}

var _ plugin.CameraPlugin = (*Plugin)(nil)
