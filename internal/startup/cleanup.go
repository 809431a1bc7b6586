// Package startup provides utilities for application startup tasks.
package startup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmylchreest/camerad/internal/repository"
)

// TempDirPrefix is the prefix used for camerad's own temp directories.
const TempDirPrefix = "camerad-"

// CleanupOrphanedTempDirs removes orphaned temporary directories that are older
// than the specified maxAge. It looks for directories matching the pattern
// "camerad-*" in the specified base directory.
//
// Returns the number of directories removed and any error encountered.
func CleanupOrphanedTempDirs(logger *slog.Logger, baseDir string, maxAge time.Duration) (int, error) {
	// Check if the base directory exists
	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		logger.Debug("base directory does not exist, skipping cleanup",
			"path", baseDir,
		)
		return 0, nil
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		logger.Error("failed to read directory for cleanup",
			"path", baseDir,
			"error", err,
		)
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		// Only process directories
		if !entry.IsDir() {
			continue
		}

		// Only process directories matching our prefix
		if !strings.HasPrefix(entry.Name(), TempDirPrefix) {
			continue
		}

		dirPath := filepath.Join(baseDir, entry.Name())

		// Get file info for modification time
		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to get directory info",
				"path", dirPath,
				"error", err,
			)
			continue
		}

		// Check if directory is older than cutoff
		if info.ModTime().After(cutoff) {
			logger.Debug("preserving recent temp directory",
				"path", dirPath,
				"age", time.Since(info.ModTime()).Round(time.Second),
			)
			continue
		}

		// Remove the orphaned directory
		if err := os.RemoveAll(dirPath); err != nil {
			logger.Warn("failed to remove orphaned temp directory",
				"path", dirPath,
				"error", err,
			)
			continue
		}

		logger.Info("removed orphaned temp directory",
			"path", dirPath,
			"age", time.Since(info.ModTime()).Round(time.Second),
		)
		removed++
	}

	return removed, nil
}

// DefaultCleanupAge is the default maximum age for orphaned temp directories (1 hour).
const DefaultCleanupAge = 1 * time.Hour

// CleanupSystemTempDirs cleans up orphaned camerad temp directories from the
// system temp directory using the default cleanup age.
func CleanupSystemTempDirs(logger *slog.Logger) (int, error) {
	return CleanupOrphanedTempDirs(logger, os.TempDir(), DefaultCleanupAge)
}

// RecoverOrphanedRecordings deletes recording rows left with is_finished=false
// by an unclean shutdown. The process supervisor tracks in-flight recordings
// only in memory, so after a restart no handle exists to resume or finalize
// them; their temp transport stream is abandoned on disk along with the row.
//
// Returns the number of rows recovered and any error encountered.
func RecoverOrphanedRecordings(ctx context.Context, logger *slog.Logger, recordingRepo repository.RecordingRepository) (int, error) {
	ids, err := recordingRepo.GetActiveCameraIDs(ctx)
	if err != nil {
		logger.Error("failed to get active camera ids for orphan recovery", "error", err)
		return 0, err
	}

	var recovered int
	for _, cameraID := range ids {
		rec, err := recordingRepo.GetActiveByCameraID(ctx, cameraID)
		if err != nil {
			logger.Error("failed to get active recording for orphan recovery",
				"camera_id", cameraID, "error", err)
			continue
		}
		if rec == nil {
			continue
		}

		logger.Warn("recovering orphaned recording left in-flight by unclean shutdown",
			"recording_id", rec.ID,
			"camera_id", rec.CameraID,
			"filename", rec.Filename,
		)

		if err := recordingRepo.Delete(ctx, rec.ID); err != nil {
			logger.Error("failed to recover orphaned recording",
				"recording_id", rec.ID, "error", err)
			continue
		}

		recovered++
	}

	return recovered, nil
}
