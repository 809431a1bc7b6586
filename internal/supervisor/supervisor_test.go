package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
)

type fakeCameraRepo struct {
	cameras map[uint]*models.Camera
}

func (f *fakeCameraRepo) Create(context.Context, *models.Camera) error { return nil }
func (f *fakeCameraRepo) GetByID(_ context.Context, id uint) (*models.Camera, error) {
	return f.cameras[id], nil
}
func (f *fakeCameraRepo) GetAll(context.Context) ([]*models.Camera, error) { return nil, nil }
func (f *fakeCameraRepo) Update(context.Context, *models.Camera) error    { return nil }
func (f *fakeCameraRepo) Delete(context.Context, uint) error              { return nil }

type fakeRecordingRepo struct {
	active      map[uint]*models.Recording
	deletedIDs  []uint
	finalizedID uint
}

func (f *fakeRecordingRepo) InsertPending(_ context.Context, r *models.Recording) error {
	r.ID = 100
	f.active[r.CameraID] = r
	return nil
}
func (f *fakeRecordingRepo) GetByID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetAll(context.Context) ([]*models.Recording, error) { return nil, nil }
func (f *fakeRecordingRepo) GetActiveByCameraID(_ context.Context, cameraID uint) (*models.Recording, error) {
	return f.active[cameraID], nil
}
func (f *fakeRecordingRepo) GetActiveCameraIDs(context.Context) ([]uint, error) { return nil, nil }
func (f *fakeRecordingRepo) Finalize(_ context.Context, id uint, _ string, _ *string, _ models.Time) error {
	f.finalizedID = id
	return nil
}
func (f *fakeRecordingRepo) Delete(_ context.Context, id uint) error {
	f.deletedIDs = append(f.deletedIDs, id)
	for cam, rec := range f.active {
		if rec.ID == id {
			delete(f.active, cam)
		}
	}
	return nil
}

type fakeSettingsRepo struct{}

func (f *fakeSettingsRepo) Get(context.Context) (*models.EncoderSettings, error) {
	return &models.EncoderSettings{EncoderMode: models.EncoderModeCpuOnly, CPUEncoder: "libx264", Preset: "ultrafast", Quality: 23}, nil
}
func (f *fakeSettingsRepo) Update(context.Context, *models.EncoderSettingsPatch) (*models.EncoderSettings, error) {
	return nil, nil
}

type fakeFinalizer struct {
	calledWith *models.Recording
	err        error
}

func (f *fakeFinalizer) Finalize(_ context.Context, r *models.Recording, _ string) error {
	f.calledWith = r
	return f.err
}

func newTestSupervisor(t *testing.T, cameraRepo *fakeCameraRepo, recordingRepo *fakeRecordingRepo, fin *fakeFinalizer) *Supervisor {
	t.Helper()
	dir := t.TempDir()
	storage := config.StorageConfig{BaseDir: dir, StreamDir: "streams", RecordingDir: "recordings", ThumbnailDir: "thumbnails"}
	registry := plugin.NewRegistry(nil) // no plugins: everything falls back to raw RTSP
	return New(cameraRepo, recordingRepo, &fakeSettingsRepo{}, registry, fin, storage, "true", nil)
}

func rtspCamera(id uint) *models.Camera {
	c := &models.Camera{Backend: models.BackendRTSP, Host: "10.0.0.5", Port: 554}
	c.ID = id
	return c
}

func TestStartStream_IsIdempotent(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	s := newTestSupervisor(t, cameraRepo, &fakeRecordingRepo{active: map[uint]*models.Recording{}}, &fakeFinalizer{})

	path1, err := s.StartStream(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, s.IsStreaming(1))

	path2, err := s.StartStream(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, path1, path2)

	require.NoError(t, s.StopStream(context.Background(), 1))
	assert.False(t, s.IsStreaming(1))
}

func TestStartStream_UnknownCameraIsNotFound(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{}}
	s := newTestSupervisor(t, cameraRepo, &fakeRecordingRepo{active: map[uint]*models.Recording{}}, &fakeFinalizer{})

	_, err := s.StartStream(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindNotFound))
}

func TestStartRecording_RejectsSecondConcurrentCall(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	recordingRepo := &fakeRecordingRepo{active: map[uint]*models.Recording{}}
	s := newTestSupervisor(t, cameraRepo, recordingRepo, &fakeFinalizer{})

	require.NoError(t, s.StartRecording(context.Background(), 1, nil))

	err := s.StartRecording(context.Background(), 1, nil)
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindAlreadyActive))

	require.NoError(t, s.StopRecording(context.Background(), 1))
}

func TestStopRecording_FinalizesWhenTempFileExists(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	recordingRepo := &fakeRecordingRepo{active: map[uint]*models.Recording{}}
	fin := &fakeFinalizer{}
	s := newTestSupervisor(t, cameraRepo, recordingRepo, fin)

	require.NoError(t, s.StartRecording(context.Background(), 1, nil))

	rec := recordingRepo.active[1]
	require.NotNil(t, rec)
	tempPath := filepath.Join(s.storage.RecordingPath(), rec.Filename)
	require.NoError(t, os.WriteFile(tempPath, []byte("data"), 0o644))

	require.NoError(t, s.StopRecording(context.Background(), 1))
	assert.NotNil(t, fin.calledWith)
	assert.Equal(t, rec.ID, fin.calledWith.ID)
}

func TestStopRecording_DeletesDanglingRowWhenTempFileMissing(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	recordingRepo := &fakeRecordingRepo{active: map[uint]*models.Recording{}}
	fin := &fakeFinalizer{}
	s := newTestSupervisor(t, cameraRepo, recordingRepo, fin)

	require.NoError(t, s.StartRecording(context.Background(), 1, nil))
	rec := recordingRepo.active[1]
	require.NotNil(t, rec)
	// Temp file deliberately never written.

	require.NoError(t, s.StopRecording(context.Background(), 1))
	assert.Nil(t, fin.calledWith)
	assert.Contains(t, recordingRepo.deletedIDs, rec.ID)
}

func TestStopRecording_NoActiveRecordingIsNotFound(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	s := newTestSupervisor(t, cameraRepo, &fakeRecordingRepo{active: map[uint]*models.Recording{}}, &fakeFinalizer{})

	err := s.StopRecording(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.KindNotFound))
}

func TestStopStream_CascadesToRecordingAndDeletesDanglingRow(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	recordingRepo := &fakeRecordingRepo{active: map[uint]*models.Recording{}}
	s := newTestSupervisor(t, cameraRepo, recordingRepo, &fakeFinalizer{})

	_, err := s.StartStream(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, s.StartRecording(context.Background(), 1, nil))

	rec := recordingRepo.active[1]
	require.NotNil(t, rec)
	// Temp file never written, so the cascade's recording stop leaves a
	// dangling row that StopStream must delete.

	require.NoError(t, s.StopStream(context.Background(), 1))

	assert.False(t, s.IsStreaming(1))
	assert.Empty(t, s.ActiveRecordingCameraIDs())
	assert.Contains(t, recordingRepo.deletedIDs, rec.ID)
}

func TestShutdown_DrainsBothMaps(t *testing.T) {
	cameraRepo := &fakeCameraRepo{cameras: map[uint]*models.Camera{1: rtspCamera(1)}}
	recordingRepo := &fakeRecordingRepo{active: map[uint]*models.Recording{}}
	s := newTestSupervisor(t, cameraRepo, recordingRepo, &fakeFinalizer{})

	_, err := s.StartStream(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, s.StartRecording(context.Background(), 1, nil))

	s.Shutdown(context.Background())

	assert.False(t, s.IsStreaming(1))
	assert.Empty(t, s.ActiveRecordingCameraIDs())
}
