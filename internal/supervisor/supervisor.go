// Package supervisor owns every transcoder child process the system spawns:
// live HLS streams and finished-on-stop recordings, each keyed by camera id.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/encoder"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/plugin"
	"github.com/jmylchreest/camerad/internal/repository"
)

// RecordingFinalizer is the subset of internal/finalizer.Finalizer the
// supervisor calls into once a recording's child has exited.
type RecordingFinalizer interface {
	Finalize(ctx context.Context, recording *models.Recording, tempPath string) error
}

// handle is one live child process.
type handle struct {
	cmd      *exec.Cmd
	pid      int
	tempPath string // only set for recording handles
}

// Supervisor owns the stream and recording process maps. Each map is
// guarded by its own mutex whose critical sections are limited to
// map contains/insert/remove; nothing that awaits is ever done while
// holding a lock.
type Supervisor struct {
	streamsMu sync.Mutex
	streams   map[uint]*handle

	recordingsMu sync.Mutex
	recordings   map[uint]*handle

	cameraRepo    repository.CameraRepository
	recordingRepo repository.RecordingRepository
	settingsRepo  repository.EncoderSettingsRepository
	plugins       *plugin.Registry
	finalizer     RecordingFinalizer
	storage       config.StorageConfig
	ffmpegPath    string
	logger        *slog.Logger

	gpuMu         sync.Mutex
	gpuFunctional bool
	gpuProbed     bool
}

// New builds a Supervisor.
func New(
	cameraRepo repository.CameraRepository,
	recordingRepo repository.RecordingRepository,
	settingsRepo repository.EncoderSettingsRepository,
	plugins *plugin.Registry,
	fin RecordingFinalizer,
	storage config.StorageConfig,
	ffmpegPath string,
	logger *slog.Logger,
) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		streams:       make(map[uint]*handle),
		recordings:    make(map[uint]*handle),
		cameraRepo:    cameraRepo,
		recordingRepo: recordingRepo,
		settingsRepo:  settingsRepo,
		plugins:       plugins,
		finalizer:     fin,
		storage:       storage,
		ffmpegPath:    ffmpegPath,
		logger:        logger,
	}
}

// StartStream is idempotent: a second call for an already-streaming camera
// returns the same playlist path without spawning a new child.
func (s *Supervisor) StartStream(ctx context.Context, cameraID uint) (string, error) {
	s.streamsMu.Lock()
	if _, exists := s.streams[cameraID]; exists {
		s.streamsMu.Unlock()
		return s.playlistPath(cameraID), nil
	}
	s.streamsMu.Unlock()

	camera, err := s.cameraRepo.GetByID(ctx, cameraID)
	if err != nil {
		return "", err
	}
	if camera == nil {
		return "", domain.NotFoundf("camera %d not found", cameraID)
	}

	segmentDir := filepath.Join(s.storage.StreamPath(), fmt.Sprintf("%d", cameraID))
	if err := os.RemoveAll(segmentDir); err != nil {
		return "", domain.Wrap(domain.KindSpawnFailure, "clearing segment directory", err)
	}
	if err := os.MkdirAll(segmentDir, 0o755); err != nil {
		return "", domain.Wrap(domain.KindSpawnFailure, "creating segment directory", err)
	}

	inputURL, err := s.plugins.ResolveStreamURL(ctx, camera)
	if err != nil {
		return "", err
	}

	selection, err := s.selectEncoder(ctx, encoder.Streaming, fpsOf(camera))
	if err != nil {
		return "", err
	}

	argv := s.buildStreamArgv(camera, inputURL, segmentDir, selection)

	cmd, err := s.spawn(ctx, argv)
	if err != nil {
		return "", domain.Wrap(domain.KindSpawnFailure, "starting stream transcoder", err)
	}

	s.streamsMu.Lock()
	s.streams[cameraID] = &handle{cmd: cmd, pid: cmd.Process.Pid}
	s.streamsMu.Unlock()

	return s.playlistPath(cameraID), nil
}

func (s *Supervisor) playlistPath(cameraID uint) string {
	return fmt.Sprintf("%d/index.m3u8", cameraID)
}

// StopStream terminates the camera's live stream, cascades to stop any
// concurrent recording for the same camera, and deletes any dangling
// unfinished recording row left over from that cascade.
func (s *Supervisor) StopStream(ctx context.Context, cameraID uint) error {
	s.streamsMu.Lock()
	h, exists := s.streams[cameraID]
	if exists {
		delete(s.streams, cameraID)
	}
	s.streamsMu.Unlock()

	if exists {
		terminateAndReap(h)
	}

	if err := s.stopRecordingIfActive(ctx, cameraID); err != nil {
		s.logger.Warn("failed to stop concurrent recording during stop_stream",
			slog.Uint64("camera_id", uint64(cameraID)), slog.Any("error", err))
	}

	if active, err := s.recordingRepo.GetActiveByCameraID(ctx, cameraID); err == nil && active != nil {
		if err := s.recordingRepo.Delete(ctx, active.ID); err != nil {
			s.logger.Warn("failed to delete dangling recording row",
				slog.Uint64("recording_id", uint64(active.ID)), slog.Any("error", err))
		}
	}

	return nil
}

func (s *Supervisor) stopRecordingIfActive(ctx context.Context, cameraID uint) error {
	s.recordingsMu.Lock()
	_, exists := s.recordings[cameraID]
	s.recordingsMu.Unlock()
	if !exists {
		return nil
	}
	return s.StopRecording(ctx, cameraID)
}

// StartRecording fails fast with AlreadyActive if the camera already has a
// recording in flight. The transcoder child is spawned before the
// recording row is inserted: a spawn failure never leaves a row behind.
func (s *Supervisor) StartRecording(ctx context.Context, cameraID uint, fpsOverride *int) error {
	s.recordingsMu.Lock()
	if _, exists := s.recordings[cameraID]; exists {
		s.recordingsMu.Unlock()
		return domain.New(domain.KindAlreadyActive, fmt.Sprintf("camera %d already has a recording in progress", cameraID))
	}
	s.recordings[cameraID] = nil // claim the slot before releasing the lock
	s.recordingsMu.Unlock()

	camera, recording, tempPath, err := s.startRecordingChild(ctx, cameraID, fpsOverride)
	if err != nil {
		s.recordingsMu.Lock()
		delete(s.recordings, cameraID)
		s.recordingsMu.Unlock()
		return err
	}
	_ = camera

	if err := s.recordingRepo.InsertPending(ctx, recording); err != nil {
		s.recordingsMu.Lock()
		h := s.recordings[cameraID]
		delete(s.recordings, cameraID)
		s.recordingsMu.Unlock()
		if h != nil {
			terminateAndReap(h)
		}
		return domain.Wrap(domain.KindPersistence, "inserting pending recording", err)
	}

	return nil
}

func (s *Supervisor) startRecordingChild(ctx context.Context, cameraID uint, fpsOverride *int) (*models.Camera, *models.Recording, string, error) {
	camera, err := s.cameraRepo.GetByID(ctx, cameraID)
	if err != nil {
		return nil, nil, "", err
	}
	if camera == nil {
		return nil, nil, "", domain.NotFoundf("camera %d not found", cameraID)
	}

	inputURL, err := s.plugins.ResolveStreamURL(ctx, camera)
	if err != nil {
		return nil, nil, "", err
	}

	fps := fpsOf(camera)
	if fpsOverride != nil {
		fps = *fpsOverride
	}

	selection, err := s.selectEncoder(ctx, encoder.Recording, fps)
	if err != nil {
		return nil, nil, "", err
	}

	tempFilename := fmt.Sprintf("temp_rec_%d.ts", cameraID)
	tempPath := filepath.Join(s.storage.RecordingPath(), tempFilename)
	if err := os.MkdirAll(s.storage.RecordingPath(), 0o755); err != nil {
		return nil, nil, "", domain.Wrap(domain.KindSpawnFailure, "creating recording directory", err)
	}

	argv := s.buildRecordingArgv(camera, inputURL, tempPath, selection)

	cmd, err := s.spawn(ctx, argv)
	if err != nil {
		return nil, nil, "", domain.Wrap(domain.KindSpawnFailure, "starting recording transcoder", err)
	}

	s.recordingsMu.Lock()
	s.recordings[cameraID] = &handle{cmd: cmd, pid: cmd.Process.Pid, tempPath: tempPath}
	s.recordingsMu.Unlock()

	recording := &models.Recording{
		CameraID:  cameraID,
		Filename:  tempFilename,
		StartTime: time.Now().UTC(),
	}

	return camera, recording, tempPath, nil
}

// StopRecording terminates the camera's recording child, then hands the
// recording off to the finalizer if its temp file exists, or deletes the
// dangling row otherwise.
func (s *Supervisor) StopRecording(ctx context.Context, cameraID uint) error {
	s.recordingsMu.Lock()
	h, exists := s.recordings[cameraID]
	if exists {
		delete(s.recordings, cameraID)
	}
	s.recordingsMu.Unlock()

	if !exists || h == nil {
		return domain.New(domain.KindNotFound, fmt.Sprintf("camera %d has no recording in progress", cameraID))
	}

	terminateAndReap(h)

	recording, err := s.recordingRepo.GetActiveByCameraID(ctx, cameraID)
	if err != nil {
		return err
	}
	if recording == nil {
		return nil
	}

	if _, statErr := os.Stat(h.tempPath); statErr == nil {
		if err := s.finalizer.Finalize(ctx, recording, h.tempPath); err != nil {
			return err
		}
		return nil
	}

	return s.recordingRepo.Delete(ctx, recording.ID)
}

// Shutdown drains both maps, terminating and reaping every remaining
// child.
func (s *Supervisor) Shutdown(context.Context) {
	s.streamsMu.Lock()
	streams := s.streams
	s.streams = make(map[uint]*handle)
	s.streamsMu.Unlock()

	s.recordingsMu.Lock()
	recordings := s.recordings
	s.recordings = make(map[uint]*handle)
	s.recordingsMu.Unlock()

	for _, h := range streams {
		terminateAndReap(h)
	}
	for _, h := range recordings {
		if h != nil {
			terminateAndReap(h)
		}
	}
}

// IsStreaming reports whether the camera currently has a live stream
// child in the process map.
func (s *Supervisor) IsStreaming(cameraID uint) bool {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	_, exists := s.streams[cameraID]
	return exists
}

// ActiveRecordingCameraIDs returns the camera ids with a recording
// currently in the process map.
func (s *Supervisor) ActiveRecordingCameraIDs() []uint {
	s.recordingsMu.Lock()
	defer s.recordingsMu.Unlock()

	ids := make([]uint, 0, len(s.recordings))
	for id := range s.recordings {
		ids = append(ids, id)
	}
	return ids
}

func fpsOf(camera *models.Camera) int {
	if camera.VideoFPS != nil {
		return *camera.VideoFPS
	}
	return 0
}

// spawn starts argv with stdout discarded and stderr inherited by the
// parent, per the transcoder contract.
func (s *Supervisor) spawn(ctx context.Context, argv []string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, s.ffmpegPath, argv...)
	cmd.Stderr = os.Stderr
	setPlatformProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// terminateAndReap signals the child to stop and waits for it to exit. On
// POSIX an unconditional kill-by-pid follows the wait as a belt-and-braces
// measure against a child that ignored the signal.
func terminateAndReap(h *handle) {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return
	}
	_ = h.cmd.Process.Signal(terminationSignal())
	_ = h.cmd.Wait()
	killByPID(h.pid)
}

func (s *Supervisor) selectEncoder(ctx context.Context, purpose encoder.Purpose, fps int) (*encoder.Selection, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return encoder.Select(settings, purpose, fps, s.gpuIsFunctional(ctx, settings))
}

// gpuIsFunctional runs the GPU functional test once and caches the
// result for the lifetime of the process. The cache is never reset: a
// later settings update that changes gpu_encoder is not re-tested.
func (s *Supervisor) gpuIsFunctional(ctx context.Context, settings *models.EncoderSettings) bool {
	if settings.GPUEncoder == nil {
		return false
	}

	s.gpuMu.Lock()
	defer s.gpuMu.Unlock()
	if s.gpuProbed {
		return s.gpuFunctional
	}
	s.gpuFunctional = encoder.FunctionalTest(ctx, s.ffmpegPath, *settings.GPUEncoder)
	s.gpuProbed = true
	return s.gpuFunctional
}

// buildStreamArgv composes the transcoder command line for a live HLS
// stream: backend-specific input flags, the selected encoder's args, then
// the HLS sliding-window output.
func (s *Supervisor) buildStreamArgv(camera *models.Camera, inputURL, segmentDir string, sel *encoder.Selection) []string {
	argv := []string{"-y"}
	argv = append(argv, inputFlags(camera, inputURL)...)
	argv = append(argv, sel.Args...)
	argv = append(argv,
		"-f", "hls",
		"-hls_time", "2",
		"-hls_list_size", "15",
		"-hls_delete_threshold", "3",
		"-hls_flags", "delete_segments+omit_endlist+program_date_time",
		"-hls_segment_type", "mpegts",
		filepath.Join(segmentDir, "index.m3u8"),
	)
	return argv
}

// buildRecordingArgv composes the transcoder command line for a
// recording: mpegts output to a temp file, audio passed through to AAC.
func (s *Supervisor) buildRecordingArgv(camera *models.Camera, inputURL, tempPath string, sel *encoder.Selection) []string {
	argv := []string{"-y"}
	argv = append(argv, inputFlags(camera, inputURL)...)
	argv = append(argv, sel.Args...)
	argv = append(argv, "-c:a", "aac", "-f", "mpegts", tempPath)
	return argv
}

// inputFlags returns the backend-specific input arguments preceding -i.
func inputFlags(camera *models.Camera, inputURL string) []string {
	switch camera.Backend {
	case models.BackendONVIF, models.BackendRTSP:
		return []string{"-rtsp_transport", "tcp", "-i", inputURL}
	case models.BackendUVC:
		return uvcInputFlags(camera, inputURL)
	default:
		return []string{"-i", inputURL}
	}
}

func uvcInputFlags(camera *models.Camera, inputURL string) []string {
	format := platformCaptureFormat()
	flags := []string{"-f", format}

	if camera.VideoFormat != nil {
		flags = append(flags, "-input_format", *camera.VideoFormat)
	}
	if camera.VideoWidth != nil && camera.VideoHeight != nil {
		flags = append(flags, "-video_size", fmt.Sprintf("%dx%d", *camera.VideoWidth, *camera.VideoHeight))
	}
	if camera.VideoFPS != nil {
		flags = append(flags, "-framerate", fmt.Sprintf("%d", *camera.VideoFPS))
	}

	flags = append(flags, "-i", inputURL)
	return flags
}

// platformCaptureFormat returns the ffmpeg input demuxer for local UVC
// capture on the current platform.
func platformCaptureFormat() string {
	switch runtime.GOOS {
	case "windows":
		return "dshow"
	case "darwin":
		return "avfoundation"
	default:
		return "v4l2"
	}
}
