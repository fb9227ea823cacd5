package playback

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/config"
	"github.com/stwalsh4118/snapback/internal/cuepoint"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/models"
	"github.com/stwalsh4118/snapback/internal/snapback"
	"github.com/stwalsh4118/snapback/internal/timeline"
)

func testPlaybackConfig() config.PlaybackConfig {
	return config.PlaybackConfig{
		CuepointToleranceMs: 1,
		MaxSessions:         10,
		RequestTimeout:      5 * time.Second,
		SessionIdleTimeout:  time.Minute,
		CleanupInterval:     time.Hour,
	}
}

// setupTestManager creates a manager backed by a migrated temp database
func setupTestManager(t *testing.T, cfg config.PlaybackConfig) (*Manager, *db.Repositories) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	manager := NewManager(catalog.NewStreamService(database, repos), timeline.NewBookmarkService(repos), cfg)

	return manager, repos
}

func createStream(t *testing.T, repos *db.Repositories, stream *models.Stream) *models.Stream {
	require.NoError(t, repos.Streams.Create(context.Background(), stream))
	return stream
}

func TestStartSession_ModeFromStream(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()

	vod := createStream(t, repos, models.NewVODStream("Tears of Steel", "2548831", "tears-of-steel"))
	live := createStream(t, repos, models.NewLiveStream("Big Buck Bunny", "c-rArva4ShKVIAkNfy6HUQ"))

	vodSession, err := manager.StartSession(ctx, vod.ID)
	require.NoError(t, err)
	assert.Equal(t, snapback.OnDemand, vodSession.Mode)
	assert.Equal(t, vod.ID, vodSession.StreamID)

	liveSession, err := manager.StartSession(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, snapback.Live, liveSession.Mode)

	got, ok := manager.Get(vodSession.ID)
	require.True(t, ok)
	assert.Same(t, vodSession, got)
	assert.Len(t, manager.List(), 2)
}

func TestStartSession_UnknownStream(t *testing.T) {
	manager, _ := setupTestManager(t, testPlaybackConfig())

	_, err := manager.StartSession(context.Background(), uuid.New())

	assert.ErrorIs(t, err, catalog.ErrStreamNotFound)
}

func TestStartSession_SessionLimit(t *testing.T) {
	cfg := testPlaybackConfig()
	cfg.MaxSessions = 1
	manager, repos := setupTestManager(t, cfg)
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))

	_, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	_, err = manager.StartSession(ctx, stream.ID)

	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.True(t, IsTooManySessions(err))
}

func TestSession_SnapbackRoundTrip(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(context.Background(), stream.ID)
	require.NoError(t, err)

	require.NoError(t, session.UpdateCuepoints([]cuepoint.Cuepoint{{StartTime: 10, EndTime: 20}}))

	result := session.Seek(5, 35)
	assert.Equal(t, snapback.OutcomeRedirected, result.Outcome)
	assert.Equal(t, 10.0, result.Time)

	commands, err := session.HandleEvent(snapback.Event{Type: snapback.EventAdBreakStarted})
	require.NoError(t, err)
	assert.Empty(t, commands)

	refused := session.Seek(12, 60)
	assert.Equal(t, snapback.OutcomeRefused, refused.Outcome)

	commands, err = session.HandleEvent(snapback.Event{Type: snapback.EventBreakPlayed, StartTime: 10})
	require.NoError(t, err)
	assert.Empty(t, commands)

	commands, err = session.HandleEvent(snapback.Event{Type: snapback.EventAdBreakEnded})
	require.NoError(t, err)
	assert.Equal(t, []Command{{Type: CommandSeek, Time: 35}}, commands)

	snap := session.Snapshot()
	assert.Equal(t, snapback.StateIdle, snap.State)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, 35.0, snap.LastPosition)
	require.Len(t, snap.Cuepoints, 1)
	assert.True(t, snap.Cuepoints[0].Played)
}

func TestSession_SnapshotShowsPending(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(context.Background(), stream.ID)
	require.NoError(t, err)
	require.NoError(t, session.UpdateCuepoints([]cuepoint.Cuepoint{{StartTime: 10, EndTime: 20}}))

	session.Seek(0, 100)

	snap := session.Snapshot()
	assert.Equal(t, snapback.StateSnapbackPending, snap.State)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, 100.0, snap.Pending.OriginalTargetTime)
	assert.Equal(t, "vod", snap.Mode)
}

func TestSession_MalformedCuepointsApplied(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(context.Background(), stream.ID)
	require.NoError(t, err)

	err = session.UpdateCuepoints([]cuepoint.Cuepoint{
		{StartTime: 30, EndTime: 50},
		{StartTime: 10, EndTime: 40},
	})

	assert.True(t, cuepoint.IsMalformed(err))
	assert.Len(t, session.Snapshot().Cuepoints, 2)
}

func TestSession_UnknownEventRejected(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(context.Background(), stream.ID)
	require.NoError(t, err)

	commands, err := session.HandleEvent(snapback.Event{Type: "pause"})

	assert.ErrorIs(t, err, snapback.ErrUnknownEvent)
	assert.Nil(t, commands)
}

func TestEndSession_SavesBookmarkAndResumes(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	breaks := []cuepoint.Cuepoint{{StartTime: 10, EndTime: 20}}

	first, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)
	require.NoError(t, first.UpdateCuepoints(breaks))

	require.NoError(t, manager.EndSession(ctx, first.ID, 50))
	_, ok := manager.Get(first.ID)
	assert.False(t, ok)

	bookmark, err := repos.Bookmarks.Get(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, bookmark.ContentSeconds)

	// the next session learns a longer break before resuming
	second, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)
	require.NoError(t, second.UpdateCuepoints([]cuepoint.Cuepoint{{StartTime: 10, EndTime: 30}}))

	streamTime, found, err := manager.Resume(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 60.0, streamTime)
}

func TestEndSession_LiveDoesNotBookmark(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewLiveStream("Live", "c-rArva4ShKVIAkNfy6HUQ"))

	session, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	require.NoError(t, manager.EndSession(ctx, session.ID, 500))

	_, err = repos.Bookmarks.Get(ctx, stream.ID)
	assert.True(t, db.IsNotFound(err))
	assert.Empty(t, manager.List())
}

func TestEndSession_NegativeTimeKeepsSession(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	err = manager.EndSession(ctx, session.ID, -1)

	assert.ErrorIs(t, err, timeline.ErrNegativeTime)
	_, ok := manager.Get(session.ID)
	assert.True(t, ok)
}

func TestEndSession_NotFound(t *testing.T) {
	manager, _ := setupTestManager(t, testPlaybackConfig())

	err := manager.EndSession(context.Background(), uuid.New(), 0)

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsSessionNotFound(err))
}

func TestEndSession_StreamSwitchedToLiveSkipsBookmark(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	assetKey := "c-rArva4ShKVIAkNfy6HUQ"
	update := *stream
	update.Mode = models.StreamModeLive
	update.AssetKey = &assetKey
	update.ContentSourceID = nil
	update.VideoID = nil
	require.NoError(t, manager.streams.UpdateStream(ctx, &update))

	require.NoError(t, manager.EndSession(ctx, session.ID, 42))

	_, err = repos.Bookmarks.Get(ctx, stream.ID)
	assert.True(t, db.IsNotFound(err))
	_, ok := manager.Get(session.ID)
	assert.False(t, ok)
}

func TestEndSession_DeletedStreamStillEnds(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))
	session, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	require.NoError(t, manager.streams.DeleteStream(ctx, stream.ID))

	_, _, err = manager.Resume(ctx, session.ID)
	assert.ErrorIs(t, err, catalog.ErrStreamNotFound)

	require.NoError(t, manager.EndSession(ctx, session.ID, 42))
	_, ok := manager.Get(session.ID)
	assert.False(t, ok)

	err = manager.EndSession(ctx, session.ID, 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResume_LiveStream(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewLiveStream("Live", "c-rArva4ShKVIAkNfy6HUQ"))
	session, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	_, _, err = manager.Resume(ctx, session.ID)

	assert.ErrorIs(t, err, timeline.ErrLiveStream)
}

func TestPerformCleanup_EndsIdleSessions(t *testing.T) {
	manager, repos := setupTestManager(t, testPlaybackConfig())
	ctx := context.Background()
	stream := createStream(t, repos, models.NewVODStream("VOD", "2548831", "tears-of-steel"))

	idle, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)
	idle.Seek(0, 25)

	manager.performCleanup(time.Now().UTC().Add(30 * time.Second))
	assert.Len(t, manager.List(), 1)

	manager.performCleanup(time.Now().UTC().Add(2 * time.Minute))
	assert.Empty(t, manager.List())

	bookmark, err := repos.Bookmarks.Get(ctx, stream.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, bookmark.ContentSeconds)
}

func TestManager_StartStop(t *testing.T) {
	cfg := testPlaybackConfig()
	cfg.CleanupInterval = 10 * time.Millisecond
	manager, repos := setupTestManager(t, cfg)
	ctx := context.Background()
	stream := createStream(t, repos, models.NewLiveStream("Live", "c-rArva4ShKVIAkNfy6HUQ"))

	require.NoError(t, manager.Start())
	_, err := manager.StartSession(ctx, stream.ID)
	require.NoError(t, err)

	manager.Stop()
	manager.Stop()

	assert.Empty(t, manager.List())
	_, err = manager.StartSession(ctx, stream.ID)
	assert.ErrorIs(t, err, ErrManagerStopped)
	assert.ErrorIs(t, manager.Start(), ErrManagerStopped)
}
