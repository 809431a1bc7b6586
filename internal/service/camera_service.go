// Package service implements the Control Facade: the single flat surface
// every transport (HTTP handlers, CLI) drives the system through. Every
// operation is reentrant and safe to call concurrently.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/encoder"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
	"github.com/jmylchreest/camerad/internal/repository"
	"github.com/jmylchreest/camerad/internal/scheduler"
	"github.com/jmylchreest/camerad/internal/supervisor"
)

const timeSyncDwell = 500 * time.Millisecond

// TimeSyncResult is the structured before/server/message payload
// sync_camera_time returns on top of a human-readable error string.
type TimeSyncResult struct {
	Before              time.Time `json:"before"`
	Server              time.Time `json:"server"`
	Message             string    `json:"message"`
	DeltaSeconds        float64   `json:"delta_seconds"`
	AlreadySynchronized bool      `json:"already_synchronized"`
	Verified            bool      `json:"verified"`
}

// Service is the Control Facade.
type Service struct {
	cameraRepo    repository.CameraRepository
	recordingRepo repository.RecordingRepository
	settingsRepo  repository.EncoderSettingsRepository
	scheduleRepo  repository.ScheduleRepository

	plugins    *plugin.Registry
	supervisor *supervisor.Supervisor
	scheduler  *scheduler.Scheduler

	ffmpegPath string
	server     config.ServerConfig
	logger     *slog.Logger
}

// New builds the Control Facade from its wired components.
func New(
	cameraRepo repository.CameraRepository,
	recordingRepo repository.RecordingRepository,
	settingsRepo repository.EncoderSettingsRepository,
	scheduleRepo repository.ScheduleRepository,
	plugins *plugin.Registry,
	sup *supervisor.Supervisor,
	sched *scheduler.Scheduler,
	ffmpegPath string,
	server config.ServerConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cameraRepo:    cameraRepo,
		recordingRepo: recordingRepo,
		settingsRepo:  settingsRepo,
		scheduleRepo:  scheduleRepo,
		plugins:       plugins,
		supervisor:    sup,
		scheduler:     sched,
		ffmpegPath:    ffmpegPath,
		server:        server,
		logger:        logger,
	}
}

// --- cameras ---

func (s *Service) GetCameras(ctx context.Context) ([]*models.Camera, error) {
	return s.cameraRepo.GetAll(ctx)
}

func (s *Service) AddCamera(ctx context.Context, nc *models.NewCamera) (*models.Camera, error) {
	if nc.Name == "" {
		return nil, domain.Validationf("camera name is required")
	}
	camera := nc.ToCamera()
	if err := s.cameraRepo.Create(ctx, camera); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "creating camera", err)
	}
	return camera, nil
}

// DeleteCamera does not cascade-stop any live stream or recording, nor
// does it delete dependent recording rows.
func (s *Service) DeleteCamera(ctx context.Context, id uint) error {
	return s.cameraRepo.Delete(ctx, id)
}

func (s *Service) DiscoverCameras(ctx context.Context) []*models.NewCamera {
	return s.plugins.DiscoverAll(ctx)
}

func (s *Service) getCamera(ctx context.Context, id uint) (*models.Camera, error) {
	camera, err := s.cameraRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		return nil, domain.NotFoundf("camera %d not found", id)
	}
	return camera, nil
}

// --- streaming ---

func (s *Service) StartStream(ctx context.Context, id uint) (string, error) {
	relativePath, err := s.supervisor.StartStream(ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://localhost:%d/streams/%s", s.server.Port, relativePath), nil
}

func (s *Service) StopStream(ctx context.Context, id uint) error {
	return s.supervisor.StopStream(ctx, id)
}

// --- recording ---

func (s *Service) StartRecording(ctx context.Context, id uint, fpsOverride *int) error {
	return s.supervisor.StartRecording(ctx, id, fpsOverride)
}

func (s *Service) StopRecording(ctx context.Context, id uint) error {
	return s.supervisor.StopRecording(ctx, id)
}

// GetRecordings returns every recording row, in-flight ones included.
func (s *Service) GetRecordings(ctx context.Context) ([]*models.Recording, error) {
	return s.recordingRepo.GetAll(ctx)
}

func (s *Service) DeleteRecording(ctx context.Context, id uint) error {
	return s.recordingRepo.Delete(ctx, id)
}

func (s *Service) GetRecordingCameras(ctx context.Context) ([]uint, error) {
	return s.recordingRepo.GetActiveCameraIDs(ctx)
}

// --- PTZ ---

func (s *Service) CheckPTZCapabilities(ctx context.Context, id uint) (bool, error) {
	camera, err := s.getCamera(ctx, id)
	if err != nil {
		return false, err
	}
	p, err := s.plugins.Get(camera.Backend)
	if err != nil {
		return false, err
	}
	return p.SupportsPTZ(), nil
}

func (s *Service) MovePTZ(ctx context.Context, id uint, x, y, zoom float64) error {
	camera, err := s.getCamera(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.plugins.Get(camera.Backend)
	if err != nil {
		return err
	}
	if !p.SupportsPTZ() {
		return domain.New(domain.KindNotSupported, "camera does not support PTZ")
	}
	return p.PTZMove(ctx, camera, x, y, zoom)
}

func (s *Service) StopPTZ(ctx context.Context, id uint) error {
	camera, err := s.getCamera(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.plugins.Get(camera.Backend)
	if err != nil {
		return err
	}
	if !p.SupportsPTZ() {
		return domain.New(domain.KindNotSupported, "camera does not support PTZ")
	}
	return p.PTZStop(ctx, camera)
}

// --- time sync ---

func (s *Service) GetCameraTime(ctx context.Context, id uint) (time.Time, error) {
	camera, err := s.getCamera(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	p, err := s.plugins.Get(camera.Backend)
	if err != nil {
		return time.Time{}, err
	}
	if !p.SupportsTimeSync() {
		return time.Time{}, domain.New(domain.KindNotSupported, "camera does not support time sync")
	}
	return p.GetCameraTime(ctx, camera)
}

// SyncCameraTime sets the camera's clock to the host's UTC time, dwelling
// 500ms after the write before verifying the result. If the camera's
// stream was active, it is stopped before the write and restarted after
// the dwell.
func (s *Service) SyncCameraTime(ctx context.Context, id uint) (*TimeSyncResult, error) {
	camera, err := s.getCamera(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.plugins.Get(camera.Backend)
	if err != nil {
		return nil, err
	}
	if !p.SupportsTimeSync() {
		return nil, domain.New(domain.KindNotSupported, "camera does not support time sync")
	}

	before, err := p.GetCameraTime(ctx, camera)
	if err != nil {
		return nil, err
	}

	localNow := time.Now().UTC()
	initialDelta := localNow.Sub(before).Seconds()

	if math.Abs(initialDelta) < 2 {
		return &TimeSyncResult{
			Before:              before,
			Server:              before,
			Message:             "camera clock is already synchronized",
			DeltaSeconds:        initialDelta,
			AlreadySynchronized: true,
			Verified:            true,
		}, nil
	}

	wasStreaming := s.supervisor.IsStreaming(id)
	if wasStreaming {
		if err := s.supervisor.StopStream(ctx, id); err != nil {
			s.logger.Warn("failed to stop stream before time sync",
				slog.Uint64("camera_id", uint64(id)), slog.Any("error", err))
		}
	}

	target := time.Now().UTC()
	if err := p.SetCameraTime(ctx, camera, target); err != nil {
		return nil, err
	}

	time.Sleep(timeSyncDwell)

	after, err := p.GetCameraTime(ctx, camera)
	if err != nil {
		return nil, err
	}

	if wasStreaming {
		if _, err := s.supervisor.StartStream(ctx, id); err != nil {
			s.logger.Warn("failed to restart stream after time sync",
				slog.Uint64("camera_id", uint64(id)), slog.Any("error", err))
		}
	}

	verifyDelta := time.Now().UTC().Sub(after).Seconds()
	verified := math.Abs(verifyDelta) < 5

	message := "time sync verified"
	if !verified {
		message = "time sync could not be verified"
	}

	return &TimeSyncResult{
		Before:       before,
		Server:       after,
		Message:      message,
		DeltaSeconds: verifyDelta,
		Verified:     verified,
	}, nil
}

// --- encoder settings ---

func (s *Service) DetectGPU(ctx context.Context) (*encoder.Probe, error) {
	return encoder.ProbeGPU(ctx, s.ffmpegPath)
}

func (s *Service) GetEncoderSettings(ctx context.Context) (*models.EncoderSettings, error) {
	return s.settingsRepo.Get(ctx)
}

func (s *Service) UpdateEncoderSettings(ctx context.Context, patch *models.EncoderSettingsPatch) (*models.EncoderSettings, error) {
	return s.settingsRepo.Update(ctx, patch)
}

// --- recording schedules ---

func (s *Service) GetRecordingSchedules(ctx context.Context) ([]*models.RecordingSchedule, error) {
	return s.scheduleRepo.GetAll(ctx)
}

func (s *Service) AddRecordingSchedule(ctx context.Context, in *models.NewRecordingSchedule) (*models.RecordingSchedule, error) {
	if models.CronFieldCount(in.Cron) != 5 && models.CronFieldCount(in.Cron) != 6 {
		return nil, domain.Validationf("cron expression %q must have 5 or 6 fields", in.Cron)
	}
	if err := scheduler.ValidateCron(in.Cron); err != nil {
		return nil, domain.Validationf("cron expression %q is invalid: %v", in.Cron, err)
	}

	sched := &models.RecordingSchedule{
		CameraID:        in.CameraID,
		Name:            in.Name,
		Cron:            in.Cron,
		DurationMinutes: in.DurationMinutes,
		TargetFPS:       in.TargetFPS,
		IsEnabled:       in.IsEnabled,
	}
	if err := s.scheduleRepo.Create(ctx, sched); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "creating recording schedule", err)
	}

	if sched.IsEnabled {
		if err := s.scheduler.AddSchedule(sched); err != nil {
			s.logger.Error("failed to arm new recording schedule",
				slog.Uint64("schedule_id", uint64(sched.ID)), slog.Any("error", err))
		}
	}

	return sched, nil
}

// UpdateRecordingSchedule applies the patch, then re-arms the schedule by
// removing and re-adding its engine entry.
func (s *Service) UpdateRecordingSchedule(ctx context.Context, id uint, patch *models.RecordingSchedulePatch) (*models.RecordingSchedule, error) {
	if patch.IsEmpty() {
		return nil, domain.Validationf("empty recording schedule patch")
	}

	sched, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, domain.NotFoundf("recording schedule %d not found", id)
	}

	if patch.Name != nil {
		sched.Name = *patch.Name
	}
	if patch.Cron != nil {
		if models.CronFieldCount(*patch.Cron) != 5 && models.CronFieldCount(*patch.Cron) != 6 {
			return nil, domain.Validationf("cron expression %q must have 5 or 6 fields", *patch.Cron)
		}
		if err := scheduler.ValidateCron(*patch.Cron); err != nil {
			return nil, domain.Validationf("cron expression %q is invalid: %v", *patch.Cron, err)
		}
		sched.Cron = *patch.Cron
	}
	if patch.DurationMinutes != nil {
		sched.DurationMinutes = *patch.DurationMinutes
	}
	if patch.TargetFPS != nil {
		sched.TargetFPS = patch.TargetFPS
	}
	if patch.IsEnabled != nil {
		sched.IsEnabled = *patch.IsEnabled
	}

	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "updating recording schedule", err)
	}

	s.scheduler.RemoveSchedule(sched.ID)
	if sched.IsEnabled {
		if err := s.scheduler.AddSchedule(sched); err != nil {
			s.logger.Error("failed to re-arm updated recording schedule",
				slog.Uint64("schedule_id", uint64(sched.ID)), slog.Any("error", err))
		}
	}

	return sched, nil
}

func (s *Service) DeleteRecordingSchedule(ctx context.Context, id uint) error {
	s.scheduler.RemoveSchedule(id)
	return s.scheduleRepo.Delete(ctx, id)
}

func (s *Service) ToggleSchedule(ctx context.Context, id uint, enabled bool) (*models.RecordingSchedule, error) {
	return s.UpdateRecordingSchedule(ctx, id, &models.RecordingSchedulePatch{IsEnabled: &enabled})
}

// StartRecording/StopRecording above also satisfy scheduler.RecordingController,
// letting the Control Facade hand itself to the scheduler at bootstrap.
var _ scheduler.RecordingController = (*Service)(nil)
