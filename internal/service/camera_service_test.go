package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
	"github.com/jmylchreest/camerad/internal/scheduler"
	"github.com/jmylchreest/camerad/internal/supervisor"
)

type fakeCameraRepo struct {
	cameras map[uint]*models.Camera
	created *models.Camera
	deleted uint
}

func (f *fakeCameraRepo) Create(_ context.Context, c *models.Camera) error {
	c.ID = 1
	f.created = c
	return nil
}
func (f *fakeCameraRepo) GetByID(_ context.Context, id uint) (*models.Camera, error) {
	return f.cameras[id], nil
}
func (f *fakeCameraRepo) GetAll(context.Context) ([]*models.Camera, error) { return nil, nil }
func (f *fakeCameraRepo) Update(context.Context, *models.Camera) error    { return nil }
func (f *fakeCameraRepo) Delete(_ context.Context, id uint) error {
	f.deleted = id
	return nil
}

type fakeRecordingRepo struct{}

func (f *fakeRecordingRepo) InsertPending(context.Context, *models.Recording) error { return nil }
func (f *fakeRecordingRepo) GetByID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetAll(context.Context) ([]*models.Recording, error) { return nil, nil }
func (f *fakeRecordingRepo) GetActiveByCameraID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetActiveCameraIDs(context.Context) ([]uint, error) { return []uint{1}, nil }
func (f *fakeRecordingRepo) Finalize(context.Context, uint, string, *string, models.Time) error {
	return nil
}
func (f *fakeRecordingRepo) Delete(context.Context, uint) error { return nil }

type fakeSettingsRepo struct {
	settings *models.EncoderSettings
	patch    *models.EncoderSettingsPatch
}

func (f *fakeSettingsRepo) Get(context.Context) (*models.EncoderSettings, error) {
	return f.settings, nil
}
func (f *fakeSettingsRepo) Update(_ context.Context, patch *models.EncoderSettingsPatch) (*models.EncoderSettings, error) {
	f.patch = patch
	return f.settings, nil
}

type fakeScheduleRepo struct {
	schedules map[uint]*models.RecordingSchedule
	nextID    uint
	deleted   uint
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *models.RecordingSchedule) error {
	f.nextID++
	s.ID = f.nextID
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
	f.deleted = id
	delete(f.schedules, id)
	return nil
}

// fakePTZPlugin supports PTZ and time sync so service dispatch can be
// exercised without a real ONVIF device.
type fakePTZPlugin struct {
	plugin.Unsupported
	cameraTime  time.Time
	movedX      float64
	stopped     bool
	setTimeArgs time.Time
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
func (p *fakePTZPlugin) PTZMove(_ context.Context, _ *models.Camera, x, _, _ float64) error {
	p.movedX = x
	return nil
}
func (p *fakePTZPlugin) PTZStop(context.Context, *models.Camera) error {
	p.stopped = true
	return nil
}
func (p *fakePTZPlugin) GetCameraTime(context.Context, *models.Camera) (time.Time, error) {
	return p.cameraTime, nil
}
func (p *fakePTZPlugin) SetCameraTime(_ context.Context, _ *models.Camera, when time.Time) error {
	p.setTimeArgs = when
	p.cameraTime = when
	return nil
}

func newTestService(t *testing.T, cameraRepo *fakeCameraRepo, scheduleRepo *fakeScheduleRepo, settingsRepo *fakeSettingsRepo, registry *plugin.Registry) *Service {
	t.Helper()
	sched, err := scheduler.New(noopController{}, "UTC")
	require.NoError(t, err)

	storage := config.StorageConfig{BaseDir: t.TempDir(), StreamDir: "streams", RecordingDir: "recordings", ThumbnailDir: "thumbnails"}
	sup := supervisor.New(cameraRepo, &fakeRecordingRepo{}, settingsRepo, registry, noopFinalizer{}, storage, "true", nil)

	return New(cameraRepo, &fakeRecordingRepo{}, settingsRepo, scheduleRepo, registry, sup, sched, "true", config.ServerConfig{Port: 8080}, nil)
}

type noopFinalizer struct{}

func (noopFinalizer) Finalize(context.Context, *models.Recording, string) error { return nil }

type noopController struct{}

func (noopController) StartRecording(context.Context, uint, *int) error { return nil }
func (noopController) StopRecording(context.Context, uint) error       { return nil }

func TestAddCamera_RejectsEmptyName(t *testing.T) {
	s := newTestService(t, &fakeCameraRepo{}, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	_, err := s.AddCamera(context.Background(), &models.NewCamera{})
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindValidation))
}

func TestAddCamera_CreatesCamera(t *testing.T) {
	repo := &fakeCameraRepo{}
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	cam, err := s.AddCamera(context.Background(), &models.NewCamera{Name: "front door", Backend: models.BackendRTSP, Host: "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "front door", cam.Name)
	assert.Equal(t, uint(1), repo.created.ID)
}

func TestDeleteCamera_DelegatesToRepo(t *testing.T) {
	repo := &fakeCameraRepo{}
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	require.NoError(t, s.DeleteCamera(context.Background(), 5))
	assert.Equal(t, uint(5), repo.deleted)
}

func TestCheckPTZCapabilities_UnregisteredBackendIsMismatch(t *testing.T) {
	cam := &models.Camera{Backend: models.BackendONVIF}
	cam.ID = 1
	repo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: cam}}
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	_, err := s.CheckPTZCapabilities(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindBackendMismatch))
}

func TestMovePTZ_DispatchesToPlugin(t *testing.T) {
	cam := &models.Camera{Backend: models.BackendONVIF}
	cam.ID = 1
	repo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: cam}}
	ptz := &fakePTZPlugin{}
	registry := plugin.NewRegistry(nil, ptz)
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, registry)

	require.NoError(t, s.MovePTZ(context.Background(), 1, 0.5, 0, 0))
	assert.Equal(t, 0.5, ptz.movedX)

	require.NoError(t, s.StopPTZ(context.Background(), 1))
	assert.True(t, ptz.stopped)
}

func TestSyncCameraTime_AlreadySynchronizedSkipsWrite(t *testing.T) {
	cam := &models.Camera{Backend: models.BackendONVIF}
	cam.ID = 1
	repo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: cam}}
	ptz := &fakePTZPlugin{cameraTime: time.Now().UTC()}
	registry := plugin.NewRegistry(nil, ptz)
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, registry)

	result, err := s.SyncCameraTime(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.AlreadySynchronized)
	assert.True(t, ptz.setTimeArgs.IsZero(), "no write should happen when already synchronized")
}

func TestSyncCameraTime_WritesWhenDriftedAndVerifies(t *testing.T) {
	cam := &models.Camera{Backend: models.BackendONVIF}
	cam.ID = 1
	repo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: cam}}
	ptz := &fakePTZPlugin{cameraTime: time.Now().UTC().Add(-1 * time.Hour)}
	registry := plugin.NewRegistry(nil, ptz)
	s := newTestService(t, repo, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, registry)

	result, err := s.SyncCameraTime(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.AlreadySynchronized)
	assert.True(t, result.Verified)
	assert.False(t, ptz.setTimeArgs.IsZero())
}

func TestAddRecordingSchedule_RejectsBadCronFieldCount(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	_, err := s.AddRecordingSchedule(context.Background(), &models.NewRecordingSchedule{CameraID: 1, Cron: "* *"})
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindValidation))
}

func TestAddRecordingSchedule_CreatesAndArmsEnabledSchedule(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	sched, err := s.AddRecordingSchedule(context.Background(), &models.NewRecordingSchedule{
		CameraID: 1, Name: "nightly", Cron: "0 0 0 * * *", DurationMinutes: 10, IsEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), sched.ID)
	assert.Contains(t, scheduleRepo.schedules, sched.ID)
}

func TestUpdateRecordingSchedule_RejectsEmptyPatch(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	_, err := s.UpdateRecordingSchedule(context.Background(), 1, &models.RecordingSchedulePatch{})
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindValidation))
}

func TestUpdateRecordingSchedule_NotFound(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	name := "x"
	_, err := s.UpdateRecordingSchedule(context.Background(), 99, &models.RecordingSchedulePatch{Name: &name})
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindNotFound))
}

func TestToggleSchedule_FlipsIsEnabled(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{
		1: {Name: "x", Cron: "0 0 * * * *", IsEnabled: true},
	}}
	scheduleRepo.schedules[1].ID = 1
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	sched, err := s.ToggleSchedule(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, sched.IsEnabled)
}

func TestDeleteRecordingSchedule_DelegatesToRepo(t *testing.T) {
	scheduleRepo := &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{
		1: {Name: "x"},
	}}
	scheduleRepo.schedules[1].ID = 1
	s := newTestService(t, &fakeCameraRepo{}, scheduleRepo, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	require.NoError(t, s.DeleteRecordingSchedule(context.Background(), 1))
	assert.Equal(t, uint(1), scheduleRepo.deleted)
}

func TestGetRecordingCameras_ReturnsActiveIDs(t *testing.T) {
	s := newTestService(t, &fakeCameraRepo{}, &fakeScheduleRepo{schedules: map[uint]*models.RecordingSchedule{}}, &fakeSettingsRepo{}, plugin.NewRegistry(nil))

	ids, err := s.GetRecordingCameras(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)
}
