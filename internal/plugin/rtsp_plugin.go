package plugin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
)

// RTSPPlugin serves cameras whose stream URL is just a plain RTSP address:
// no control protocol, no discovery, no PTZ or time sync.
type RTSPPlugin struct {
	Unsupported
}

// NewRTSPPlugin builds the plain-RTSP plugin.
func NewRTSPPlugin() *RTSPPlugin { return &RTSPPlugin{} }

func (p *RTSPPlugin) Type() models.BackendType { return models.BackendRTSP }

// Discover is a no-op: plain RTSP cameras have no discovery protocol and
// must be added manually.
func (p *RTSPPlugin) Discover(context.Context) ([]*models.NewCamera, error) {
	return nil, nil
}

func (p *RTSPPlugin) GetStreamURL(_ context.Context, camera *models.Camera) (string, error) {
	return BuildRawRTSPURL(camera)
}

// BuildRawRTSPURL constructs a plain rtsp:// URL from a camera row's
// host/port/stream_path/credentials. Used both by RTSPPlugin and as the
// fallback for any camera whose backend tag matches no registered plugin.
func BuildRawRTSPURL(camera *models.Camera) (string, error) {
	if camera.Host == "" {
		return "", domain.New(domain.KindValidation, "camera has no host configured")
	}

	u := &url.URL{
		Scheme: "rtsp",
		Host:   fmt.Sprintf("%s:%d", camera.Host, rtspPort(camera.Port)),
	}
	if camera.StreamPath != nil {
		u.Path = *camera.StreamPath
	}
	if camera.User != nil && camera.Pass != nil {
		u.User = url.UserPassword(*camera.User, *camera.Pass)
	}

	return u.String(), nil
}

func rtspPort(port int) int {
	if port == 0 {
		return 554
	}
	return port
}

var _ CameraPlugin = (*RTSPPlugin)(nil)
