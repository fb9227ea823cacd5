package timeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/models"
)

// setupTestService creates a service with a test database
func setupTestService(t *testing.T) (*BookmarkService, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	err = db.RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	repos := db.NewRepositories(database)
	service := NewBookmarkService(repos)

	cleanup := func() {
		_ = database.Close()
	}

	return service, repos, cleanup
}

func TestSaveBookmark_StoresContentTime(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("Tears of Steel", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	contentTime, err := service.SaveBookmark(ctx, stream, 100, createTestCuepoints())

	require.NoError(t, err)
	assert.InDelta(t, 75.0, contentTime, 1e-9)

	saved, err := repos.Bookmarks.Get(ctx, stream.ID)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, saved.ContentSeconds, 1e-9)
}

func TestSaveBookmark_OverwritesPrevious(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("VOD Stream", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	_, err := service.SaveBookmark(ctx, stream, 5, nil)
	require.NoError(t, err)
	_, err = service.SaveBookmark(ctx, stream, 30, nil)
	require.NoError(t, err)

	saved, err := repos.Bookmarks.Get(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, saved.ContentSeconds)
}

func TestSaveBookmark_LiveStreamRejected(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewLiveStream("Live Stream", "c-rArva4ShKVIAkNfy6HUQ")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	_, err := service.SaveBookmark(ctx, stream, 100, nil)
	assert.ErrorIs(t, err, ErrLiveStream)

	_, _, err = service.ResumePosition(ctx, stream, nil)
	assert.ErrorIs(t, err, ErrLiveStream)
}

func TestSaveBookmark_NegativeTime(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("VOD Stream", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	_, err := service.SaveBookmark(ctx, stream, -3, nil)
	assert.ErrorIs(t, err, ErrNegativeTime)
}

func TestSaveBookmark_UnknownStreamErrorWrappedOnce(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	// never inserted, so the bookmark's foreign key fails
	stream := models.NewVODStream("Ghost", "2548831", "ghost")

	_, err := service.SaveBookmark(context.Background(), stream, 10, nil)

	require.Error(t, err)
	assert.True(t, db.IsForeignKey(err))
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to save bookmark"))
}

func TestResumePosition_UsesCurrentCuepoints(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("VOD Stream", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	// saved without any ads known
	_, err := service.SaveBookmark(ctx, stream, 75, nil)
	require.NoError(t, err)

	streamTime, found, err := service.ResumePosition(ctx, stream, createTestCuepoints())

	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 100.0, streamTime, 1e-9)
}

func TestResumePosition_NoBookmark(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("VOD Stream", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	_, found, err := service.ResumePosition(ctx, stream, nil)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestResumePosition_ZeroBookmarkIsNotFound(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	stream := models.NewVODStream("VOD Stream", "2548831", "tears-of-steel")
	require.NoError(t, repos.Streams.Create(ctx, stream))

	_, err := service.SaveBookmark(ctx, stream, 0, nil)
	require.NoError(t, err)

	_, found, err := service.ResumePosition(ctx, stream, nil)

	require.NoError(t, err)
	assert.False(t, found)
}
