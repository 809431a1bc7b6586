// Package plugin abstracts the three camera backends (ONVIF, plain RTSP,
// UVC) behind one capability-gated interface so the rest of the system
// never branches on backend type directly.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
)

// Profile is an ONVIF media profile token, as returned by GetProfiles.
type Profile struct {
	Token string
	Name  string
}

// CameraPlugin is the capability surface every backend implements. Optional
// operations (PTZ, time sync) must be checked via their Supports* query
// before being called; the default behavior for an unsupported op is to
// return a domain.KindNotSupported error with no side effect.
type CameraPlugin interface {
	Type() models.BackendType

	// Discover best-effort enumerates cameras reachable by this backend.
	// Individual discovery failures are swallowed by the caller at the
	// discover-all boundary, not here.
	Discover(ctx context.Context) ([]*models.NewCamera, error)

	// GetStreamURL resolves the input URL the transcoder should read from.
	GetStreamURL(ctx context.Context, camera *models.Camera) (string, error)

	SupportsPTZ() bool
	SupportsTimeSync() bool

	PTZMove(ctx context.Context, camera *models.Camera, x, y, zoom float64) error
	PTZStop(ctx context.Context, camera *models.Camera) error

	GetCameraTime(ctx context.Context, camera *models.Camera) (time.Time, error)
	SetCameraTime(ctx context.Context, camera *models.Camera, when time.Time) error

	GetProfiles(ctx context.Context, camera *models.Camera) ([]Profile, error)
}

// Unsupported embeds into a plugin that implements neither PTZ nor time
// sync, giving it NotSupported defaults for every optional operation. The
// local-device plugin and RTSPPlugin embed it; the ONVIF plugin does not,
// because it implements every optional operation.
type Unsupported struct{}

func (Unsupported) SupportsPTZ() bool      { return false }
func (Unsupported) SupportsTimeSync() bool { return false }

func (Unsupported) PTZMove(context.Context, *models.Camera, float64, float64, float64) error {
	return domain.New(domain.KindNotSupported, "ptz move is not supported by this backend")
}

func (Unsupported) PTZStop(context.Context, *models.Camera) error {
	return domain.New(domain.KindNotSupported, "ptz stop is not supported by this backend")
}

func (Unsupported) GetCameraTime(context.Context, *models.Camera) (time.Time, error) {
	return time.Time{}, domain.New(domain.KindNotSupported, "time sync is not supported by this backend")
}

func (Unsupported) SetCameraTime(context.Context, *models.Camera, time.Time) error {
	return domain.New(domain.KindNotSupported, "time sync is not supported by this backend")
}

func (Unsupported) GetProfiles(context.Context, *models.Camera) ([]Profile, error) {
	return nil, domain.New(domain.KindNotSupported, "media profiles are not supported by this backend")
}

// Registry dispatches by backend tag to the plugin that owns it.
type Registry struct {
	plugins map[models.BackendType]CameraPlugin
	logger  *slog.Logger
}

// NewRegistry builds a registry from the given plugins, keyed by their
// own reported Type().
func NewRegistry(logger *slog.Logger, plugins ...CameraPlugin) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{plugins: make(map[models.BackendType]CameraPlugin, len(plugins)), logger: logger}
	for _, p := range plugins {
		r.plugins[p.Type()] = p
	}
	return r
}

// Get returns the plugin for a backend tag, or a BackendMismatch error if
// none is registered.
func (r *Registry) Get(backend models.BackendType) (CameraPlugin, error) {
	p, ok := r.plugins[backend]
	if !ok {
		return nil, domain.New(domain.KindBackendMismatch, fmt.Sprintf("no plugin registered for backend %q", backend))
	}
	return p, nil
}

// ResolveStreamURL looks up the plugin for camera.Backend and asks it for
// the stream URL. If no plugin is registered for the backend tag, it falls
// back to raw RTSP URL construction rather than failing outright.
func (r *Registry) ResolveStreamURL(ctx context.Context, camera *models.Camera) (string, error) {
	p, err := r.Get(camera.Backend)
	if err != nil {
		if domain.Is(err, domain.KindBackendMismatch) {
			return BuildRawRTSPURL(camera)
		}
		return "", err
	}
	return p.GetStreamURL(ctx, camera)
}

// DiscoverAll runs Discover against every registered plugin, logging and
// skipping any plugin whose discovery fails rather than aborting the
// whole scan.
func (r *Registry) DiscoverAll(ctx context.Context) []*models.NewCamera {
	var found []*models.NewCamera
	for backend, p := range r.plugins {
		cameras, err := p.Discover(ctx)
		if err != nil {
			r.logger.Warn("camera discovery failed for backend",
				slog.String("backend", string(backend)),
				slog.Any("error", err))
			continue
		}
		found = append(found, cameras...)
	}
	return found
}
