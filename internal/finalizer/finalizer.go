// Package finalizer turns a stopped recording's temporary transport
// stream into its final playable MP4 plus a thumbnail.
package finalizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/repository"
)

// recordingTimezone is the zone final filenames are timestamped in.
const recordingTimezone = "Asia/Tokyo"

// Finalizer implements the five-step remux/thumbnail/commit sequence run
// once a recording's transcoder child has exited.
type Finalizer struct {
	recordingRepo repository.RecordingRepository
	storage       config.StorageConfig
	ffmpegPath    string
	logger        *slog.Logger
	loc           *time.Location
}

// New builds a Finalizer. Final filenames are timestamped in
// recordingTimezone (Asia/Tokyo), which New loads itself.
func New(recordingRepo repository.RecordingRepository, storage config.StorageConfig, ffmpegPath string, logger *slog.Logger) (*Finalizer, error) {
	loc, err := time.LoadLocation(recordingTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading finalizer timezone: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		recordingRepo: recordingRepo,
		storage:       storage,
		ffmpegPath:    ffmpegPath,
		logger:        logger,
		loc:           loc,
	}, nil
}

// Finalize runs the five steps in order: compose the final filename,
// remux the temp .ts into a faststart .mp4, best-effort delete the temp
// file, best-effort generate a thumbnail, then commit filename/thumbnail/
// end_time/is_finished=1 in a single update. A remux failure is fatal and
// leaves the row is_finished=0; a thumbnail failure is a warning only.
func (f *Finalizer) Finalize(ctx context.Context, recording *models.Recording, tempPath string) error {
	now := time.Now().In(f.loc)
	finalFilename := fmt.Sprintf("rec_%d_%s.mp4", recording.CameraID, now.Format("20060102_150405"))
	finalPath := filepath.Join(f.storage.RecordingPath(), finalFilename)

	if err := f.remux(ctx, tempPath, finalPath); err != nil {
		return domain.Wrap(domain.KindSpawnFailure, "remuxing recording to mp4", err)
	}

	if err := os.Remove(tempPath); err != nil {
		f.logger.Warn("failed to remove temporary recording file",
			slog.String("path", tempPath), slog.Any("error", err))
	}

	var thumbnail *string
	thumbName := thumbnailName(finalFilename)
	thumbPath := filepath.Join(f.storage.ThumbnailPath(), thumbName)
	if err := f.generateThumbnail(ctx, finalPath, thumbPath); err != nil {
		f.logger.Warn("failed to generate recording thumbnail",
			slog.Uint64("recording_id", uint64(recording.ID)), slog.Any("error", err))
	} else {
		thumbnail = &thumbName
	}

	endTime := time.Now().UTC()
	return f.recordingRepo.Finalize(ctx, recording.ID, finalFilename, thumbnail, endTime)
}

func thumbnailName(finalFilename string) string {
	base := finalFilename[:len(finalFilename)-len(filepath.Ext(finalFilename))]
	return base + ".jpg"
}

// remux copies the stream without re-encoding and sets the faststart flag
// so the moov atom is written before the mdat for progressive playback.
func (f *Finalizer) remux(ctx context.Context, tempPath, finalPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y", "-i", tempPath,
		"-c", "copy",
		"-movflags", "+faststart",
		finalPath,
	)
	return cmd.Run()
}

// generateThumbnail grabs a single frame at 2 seconds in, scaled to 320px
// wide.
func (f *Finalizer) generateThumbnail(ctx context.Context, finalPath, thumbPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-ss", "00:00:02", "-i", finalPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-q:v", "2",
		thumbPath,
	)
	return cmd.Run()
}
