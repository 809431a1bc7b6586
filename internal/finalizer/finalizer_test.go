package finalizer

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/models"
)

// fakeRecordingRepo records whatever Finalize was called with, so tests can
// assert the commit without a real database.
type fakeRecordingRepo struct {
	finalizedID        uint
	finalizedFilename  string
	finalizedThumbnail *string
	finalizeErr        error
}

func (f *fakeRecordingRepo) InsertPending(context.Context, *models.Recording) error { return nil }
func (f *fakeRecordingRepo) GetByID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetAll(context.Context) ([]*models.Recording, error) { return nil, nil }
func (f *fakeRecordingRepo) GetActiveByCameraID(context.Context, uint) (*models.Recording, error) {
	return nil, nil
}
func (f *fakeRecordingRepo) GetActiveCameraIDs(context.Context) ([]uint, error) { return nil, nil }
func (f *fakeRecordingRepo) Finalize(_ context.Context, id uint, filename string, thumbnail *string, _ models.Time) error {
	f.finalizedID = id
	f.finalizedFilename = filename
	f.finalizedThumbnail = thumbnail
	return f.finalizeErr
}
func (f *fakeRecordingRepo) Delete(context.Context, uint) error { return nil }

func newTestFinalizer(t *testing.T, repo *fakeRecordingRepo) *Finalizer {
	t.Helper()
	dir := t.TempDir()
	storage := config.StorageConfig{BaseDir: dir}
	require.NoError(t, os.MkdirAll(storage.RecordingPath(), 0o755))
	require.NoError(t, os.MkdirAll(storage.ThumbnailPath(), 0o755))

	// "true" always exits 0 regardless of args, standing in for ffmpeg
	// without requiring the real binary on the test host.
	f, err := New(repo, storage, "true", nil)
	require.NoError(t, err)
	return f
}

func TestFinalizer_Finalize_CommitsFilenameAndEndTime(t *testing.T) {
	repo := &fakeRecordingRepo{}
	f := newTestFinalizer(t, repo)

	tempDir := t.TempDir()
	tempPath := filepath.Join(tempDir, "rec_1.ts")
	require.NoError(t, os.WriteFile(tempPath, []byte("fake ts data"), 0o644))

	recording := &models.Recording{CameraID: 1}
	recording.ID = 42

	err := f.Finalize(context.Background(), recording, tempPath)
	require.NoError(t, err)

	assert.Equal(t, uint(42), repo.finalizedID)
	assert.Regexp(t, regexp.MustCompile(`^rec_1_\d{8}_\d{6}\.mp4$`), repo.finalizedFilename)

	// remux is a no-op stand-in, so the temp file removal still must have
	// happened (best-effort, but the fixture wrote a real file to remove).
	_, statErr := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFinalizer_Finalize_RemuxFailureIsFatalAndSkipsCommit(t *testing.T) {
	repo := &fakeRecordingRepo{}
	dir := t.TempDir()
	storage := config.StorageConfig{BaseDir: dir}
	require.NoError(t, os.MkdirAll(storage.RecordingPath(), 0o755))
	require.NoError(t, os.MkdirAll(storage.ThumbnailPath(), 0o755))

	// "false" always exits 1, standing in for a remux that fails.
	f, err := New(repo, storage, "false", nil)
	require.NoError(t, err)

	tempDir := t.TempDir()
	tempPath := filepath.Join(tempDir, "rec_2.ts")
	require.NoError(t, os.WriteFile(tempPath, []byte("fake ts data"), 0o644))

	recording := &models.Recording{CameraID: 2}
	recording.ID = 7

	err = f.Finalize(context.Background(), recording, tempPath)
	require.Error(t, err)
	assert.Equal(t, uint(0), repo.finalizedID, "Finalize must not be called on the repo when remux fails")

	// The temp file is left in place since the remux never ran successfully.
	_, statErr := os.Stat(tempPath)
	assert.NoError(t, statErr)
}

func TestThumbnailName(t *testing.T) {
	assert.Equal(t, "rec_1_20240101_120000.jpg", thumbnailName("rec_1_20240101_120000.mp4"))
}
