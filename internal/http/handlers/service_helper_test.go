package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
	"github.com/jmylchreest/camerad/internal/scheduler"
	"github.com/jmylchreest/camerad/internal/service"
	"github.com/jmylchreest/camerad/internal/supervisor"
)

type fakeCameraRepo struct {
	cameras map[uint]*models.Camera
	deleted uint
}

func (f *fakeCameraRepo) Create(_ context.Context, c *models.Camera) error {
	c.ID = 1
	if f.cameras == nil {
		f.cameras = map[uint]*models.Camera{}
	}
	f.cameras[c.ID] = c
	return nil
}
func (f *fakeCameraRepo) GetByID(_ context.Context, id uint) (*models.Camera, error) {
	return f.cameras[id], nil
}
func (f *fakeCameraRepo) GetAll(context.Context) ([]*models.Camera, error) {
	out := make([]*models.Camera, 0, len(f.cameras))
	for _, c := range f.cameras {
		out = append(out, c)
	}
	return out, nil
}
func (f *fakeCameraRepo) Update(context.Context, *models.Camera) error { return nil }
func (f *fakeCameraRepo) Delete(_ context.Context, id uint) error {
	f.deleted = id
	delete(f.cameras, id)
	return nil
}

type fakeRecordingRepo struct {
	active map[uint]*models.Recording
}

func (f *fakeRecordingRepo) InsertPending(context.Context, *models.Recording) error { return nil }
func (f *fakeRecordingRepo) GetByID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetAll(context.Context) ([]*models.Recording, error) { return nil, nil }
func (f *fakeRecordingRepo) GetActiveByCameraID(_ context.Context, id uint) (*models.Recording, error) {
	if f.active == nil {
		return nil, nil
	}
	return f.active[id], nil
}
func (f *fakeRecordingRepo) GetActiveCameraIDs(context.Context) ([]uint, error) { return nil, nil }
func (f *fakeRecordingRepo) Finalize(context.Context, uint, string, *string, models.Time) error {
	return nil
}
func (f *fakeRecordingRepo) Delete(context.Context, uint) error { return nil }

type fakeSettingsRepo struct {
	settings *models.EncoderSettings
}

func (f *fakeSettingsRepo) Get(context.Context) (*models.EncoderSettings, error) {
	return f.settings, nil
}
func (f *fakeSettingsRepo) Update(_ context.Context, patch *models.EncoderSettingsPatch) (*models.EncoderSettings, error) {
	return f.settings, nil
}

type fakeScheduleRepo struct {
	schedules map[uint]*models.RecordingSchedule
	nextID    uint
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *models.RecordingSchedule) error {
	f.nextID++
	s.ID = f.nextID
	if f.schedules == nil {
		f.schedules = map[uint]*models.RecordingSchedule{}
	}
	f.schedules[s.ID] = s
	return nil
}
func (f *fakeScheduleRepo) GetByID(_ context.Context, id uint) (*models.RecordingSchedule, error) {
	return f.schedules[id], nil
}
func (f *fakeScheduleRepo) GetAll(context.Context) ([]*models.RecordingSchedule, error) {
	out := make([]*models.RecordingSchedule, 0, len(f.schedules))
	for _, s := range f.schedules {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeScheduleRepo) GetEnabled(context.Context) ([]*models.RecordingSchedule, error) {
	return nil, nil
}
func (f *fakeScheduleRepo) Update(_ context.Context, s *models.RecordingSchedule) error {
	f.schedules[s.ID] = s
	return nil
}
func (f *fakeScheduleRepo) Delete(_ context.Context, id uint) error {
	delete(f.schedules, id)
	return nil
}

// fakePTZPlugin is an ONVIF-style plugin supporting PTZ and time sync, so
// handler dispatch can be exercised without a real camera on the network.
type fakePTZPlugin struct {
	plugin.Unsupported
	cameraTime time.Time
}

func (p *fakePTZPlugin) Type() models.BackendType { return models.BackendONVIF }
func (p *fakePTZPlugin) Discover(context.Context) ([]*models.NewCamera, error) {
	return nil, nil
}
func (p *fakePTZPlugin) GetStreamURL(context.Context, *models.Camera) (string, error) {
	return "rtsp://cam/stream", nil
}
func (p *fakePTZPlugin) SupportsPTZ() bool      { return true }
func (p *fakePTZPlugin) SupportsTimeSync() bool { return true }
func (p *fakePTZPlugin) PTZMove(context.Context, *models.Camera, float64, float64, float64) error {
	return nil
}
func (p *fakePTZPlugin) PTZStop(context.Context, *models.Camera) error { return nil }
func (p *fakePTZPlugin) GetCameraTime(context.Context, *models.Camera) (time.Time, error) {
	return p.cameraTime, nil
}
func (p *fakePTZPlugin) SetCameraTime(_ context.Context, _ *models.Camera, when time.Time) error {
	p.cameraTime = when
	return nil
}

type noopFinalizer struct{}

func (noopFinalizer) Finalize(context.Context, *models.Recording, string) error { return nil }

type noopController struct{}

func (noopController) StartRecording(context.Context, uint, *int) error { return nil }
func (noopController) StopRecording(context.Context, uint) error       { return nil }

func newTestService(t *testing.T, cameraRepo *fakeCameraRepo, recordingRepo *fakeRecordingRepo, settingsRepo *fakeSettingsRepo, scheduleRepo *fakeScheduleRepo, registry *plugin.Registry) *service.Service {
	t.Helper()
	sched, err := scheduler.New(noopController{}, "UTC")
	require.NoError(t, err)

	storage := config.StorageConfig{BaseDir: t.TempDir(), StreamDir: "streams", RecordingDir: "recordings", ThumbnailDir: "thumbnails"}
	sup := supervisor.New(cameraRepo, recordingRepo, settingsRepo, registry, noopFinalizer{}, storage, "true", nil)

	return service.New(cameraRepo, recordingRepo, settingsRepo, scheduleRepo, registry, sup, sched, "true", config.ServerConfig{Port: 8080}, nil)
}
