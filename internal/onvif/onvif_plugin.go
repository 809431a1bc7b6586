package onvif

import (
	"context"
	"time"

	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
)

// Plugin implements plugin.CameraPlugin for the onvif backend: every
// optional capability (PTZ, time sync) is supported.
type Plugin struct {
	client *Client
}

// NewPlugin builds the ONVIF plugin.
func NewPlugin() *Plugin {
	return &Plugin{client: NewClient()}
}

func (p *Plugin) Type() models.BackendType { return models.BackendONVIF }

func (p *Plugin) Discover(ctx context.Context) ([]*models.NewCamera, error) {
	devices, err := Discover(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.KindProtocolFailure, "onvif discovery failed", err)
	}

	cameras := make([]*models.NewCamera, 0, len(devices))
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = d.Address
		}
		xaddr := d.XAddr
		cameras = append(cameras, &models.NewCamera{
			Name:    name,
			Backend: models.BackendONVIF,
			Host:    d.Address,
			Port:    d.Port,
			XAddr:   &xaddr,
		})
	}
	return cameras, nil
}

func (p *Plugin) GetStreamURL(ctx context.Context, camera *models.Camera) (string, error) {
	if camera.XAddr == nil {
		return "", domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	return p.client.StreamURI(ctx, *camera.XAddr, camera.User, camera.Pass)
}

func (p *Plugin) SupportsPTZ() bool      { return true }
func (p *Plugin) SupportsTimeSync() bool { return true }

func (p *Plugin) PTZMove(ctx context.Context, camera *models.Camera, x, y, zoom float64) error {
	if camera.XAddr == nil {
		return domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	token, err := p.client.FirstProfileToken(ctx, *camera.XAddr, camera.User, camera.Pass)
	if err != nil {
		return err
	}
	return p.client.ContinuousMove(ctx, *camera.XAddr, camera.User, camera.Pass, token, x, y, zoom)
}

func (p *Plugin) PTZStop(ctx context.Context, camera *models.Camera) error {
	if camera.XAddr == nil {
		return domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	token, err := p.client.FirstProfileToken(ctx, *camera.XAddr, camera.User, camera.Pass)
	if err != nil {
		return err
	}
	return p.client.StopMove(ctx, *camera.XAddr, camera.User, camera.Pass, token)
}

func (p *Plugin) GetCameraTime(ctx context.Context, camera *models.Camera) (time.Time, error) {
	if camera.XAddr == nil {
		return time.Time{}, domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	return p.client.GetSystemDateAndTime(ctx, *camera.XAddr)
}

func (p *Plugin) SetCameraTime(ctx context.Context, camera *models.Camera, when time.Time) error {
	if camera.XAddr == nil {
		return domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	return p.client.SetSystemDateAndTime(ctx, *camera.XAddr, camera.User, camera.Pass, when)
}

func (p *Plugin) GetProfiles(ctx context.Context, camera *models.Camera) ([]plugin.Profile, error) {
	if camera.XAddr == nil {
		return nil, domain.New(domain.KindValidation, "onvif camera is missing its device service address")
	}
	token, err := p.client.FirstProfileToken(ctx, *camera.XAddr, camera.User, camera.Pass)
	if err != nil {
		return nil, err
	}
	return []plugin.Profile{{Token: token}}, nil
}

var _ plugin.CameraPlugin = (*Plugin)(nil)
