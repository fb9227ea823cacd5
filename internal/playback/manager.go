// Package playback keeps the in-memory registry of player sessions. Each session owns
// one snapback coordinator and serializes every call into it.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/config"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/metrics"
	"github.com/stwalsh4118/snapback/internal/snapback"
	"github.com/stwalsh4118/snapback/internal/timeline"
)

// Manager registers sessions and restores or saves their bookmarks
type Manager struct {
	streams       *catalog.StreamService
	bookmarks     *timeline.BookmarkService
	config        config.PlaybackConfig
	sessions      map[uuid.UUID]*Session
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	cleanupDone   chan struct{}
	mu            sync.RWMutex
	stopped       bool
}

// NewManager creates a new playback manager instance
func NewManager(streams *catalog.StreamService, bookmarks *timeline.BookmarkService, cfg config.PlaybackConfig) *Manager {
	return &Manager{
		streams:     streams,
		bookmarks:   bookmarks,
		config:      cfg,
		sessions:    make(map[uuid.UUID]*Session),
		stopChan:    make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Start begins the background loop that ends idle sessions
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}
	if m.cleanupTicker != nil {
		return nil
	}

	m.cleanupTicker = time.NewTicker(m.config.CleanupInterval)
	go m.runCleanupLoop()

	logger.Log.Info().
		Dur("cleanup_interval", m.config.CleanupInterval).
		Dur("idle_timeout", m.config.SessionIdleTimeout).
		Int("max_sessions", m.config.MaxSessions).
		Msg("Playback manager started")

	return nil
}

// Stop ends the cleanup loop and every remaining session, saving VOD bookmarks
// at each session's last known position.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	ticker := m.cleanupTicker
	m.mu.Unlock()

	logger.Log.Info().Msg("Stopping playback manager...")

	close(m.stopChan)
	if ticker != nil {
		<-m.cleanupDone
		ticker.Stop()
	}

	sessions := m.List()
	for _, session := range sessions {
		m.endIdle(session)
	}

	logger.Log.Info().
		Int("ended_sessions", len(sessions)).
		Msg("Playback manager stopped")
}

// StartSession registers a new session for a catalog stream
func (m *Manager) StartSession(ctx context.Context, streamID uuid.UUID) (*Session, error) {
	stream, err := m.streams.GetByID(ctx, streamID)
	if err != nil {
		return nil, err
	}

	mode, err := snapback.ParseMode(stream.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	session := newSession(stream, mode, m.config.CuepointTolerance())

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrManagerStopped
	}
	if len(m.sessions) >= m.config.MaxSessions {
		m.mu.Unlock()
		logger.Log.Warn().
			Str("stream_id", streamID.String()).
			Int("max_sessions", m.config.MaxSessions).
			Msg("Session limit reached")
		return nil, ErrTooManySessions
	}
	m.sessions[session.ID] = session
	m.mu.Unlock()

	metrics.SessionStarted()

	logger.Log.Info().
		Str("session_id", session.ID.String()).
		Str("stream_id", streamID.String()).
		Str("mode", mode.String()).
		Msg("Playback session started")

	return session, nil
}

// Get retrieves a session by ID (thread-safe)
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// List returns all active sessions (thread-safe)
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Resume returns the stream time the session should start playing from, converted
// from the stream's bookmark with the session's current cuepoints.
func (m *Manager) Resume(ctx context.Context, id uuid.UUID) (float64, bool, error) {
	session, ok := m.Get(id)
	if !ok {
		return 0, false, ErrSessionNotFound
	}

	stream, err := m.streams.GetByID(ctx, session.StreamID)
	if err != nil {
		return 0, false, err
	}
	_, cuepoints := session.position()

	return m.bookmarks.ResumePosition(ctx, stream, cuepoints)
}

// EndSession saves the bookmark of a VOD session at streamTime and removes the session.
// A failed save keeps the session registered so the call can be retried.
func (m *Manager) EndSession(ctx context.Context, id uuid.UUID, streamTime float64) error {
	session, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	if session.Mode == snapback.OnDemand {
		if err := m.saveBookmark(ctx, session, streamTime); err != nil {
			return err
		}
	}

	if m.remove(id) {
		logger.Log.Info().
			Str("session_id", id.String()).
			Str("stream_id", session.StreamID.String()).
			Float64("stream_time", streamTime).
			Msg("Playback session ended")
	}

	return nil
}

// saveBookmark bookmarks streamTime against the stream as the catalog has it now.
// A stream deleted or switched to live since the session started gets no bookmark,
// and the session may still end.
func (m *Manager) saveBookmark(ctx context.Context, session *Session, streamTime float64) error {
	stream, err := m.streams.GetByID(ctx, session.StreamID)
	if err != nil {
		if catalog.IsStreamNotFound(err) {
			m.skipBookmark(session, "stream deleted")
			return nil
		}
		metrics.RecordBookmarkSave(false)
		return fmt.Errorf("failed to end session: %w", err)
	}
	if stream.IsLive() {
		m.skipBookmark(session, "stream is now live")
		return nil
	}

	_, cuepoints := session.position()

	if _, err := m.bookmarks.SaveBookmark(ctx, stream, streamTime, cuepoints); err != nil {
		switch {
		case db.IsForeignKey(err):
			// deleted between the lookup and the save
			m.skipBookmark(session, "stream deleted")
			return nil
		case errors.Is(err, timeline.ErrNegativeTime):
			metrics.RecordBookmarkSave(false)
			return err
		default:
			metrics.RecordBookmarkSave(false)
			return fmt.Errorf("failed to end session: %w", err)
		}
	}
	metrics.RecordBookmarkSave(true)
	return nil
}

func (m *Manager) skipBookmark(session *Session, reason string) {
	metrics.RecordBookmarkSkipped()
	logger.Log.Warn().
		Str("session_id", session.ID.String()).
		Str("stream_id", session.StreamID.String()).
		Str("reason", reason).
		Msg("Bookmark not saved")
}

// remove deletes a session from the registry; it reports false if it was already gone
func (m *Manager) remove(id uuid.UUID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		metrics.SessionEnded()
	}
	return ok
}

// runCleanupLoop runs periodic cleanup of idle sessions
func (m *Manager) runCleanupLoop() {
	defer close(m.cleanupDone)

	logger.Log.Debug().Msg("Cleanup loop started")

	for {
		select {
		case <-m.stopChan:
			logger.Log.Debug().Msg("Cleanup loop stopping")
			return
		case <-m.cleanupTicker.C:
			m.performCleanup(time.Now().UTC())
		}
	}
}

// performCleanup ends sessions idle for longer than the configured timeout
func (m *Manager) performCleanup(now time.Time) {
	sessions := m.List()

	endedCount := 0
	for _, session := range sessions {
		idle := session.idleSince(now)
		if idle < m.config.SessionIdleTimeout {
			continue
		}

		logger.Log.Info().
			Str("session_id", session.ID.String()).
			Dur("idle_duration", idle).
			Msg("Ending idle session")

		m.endIdle(session)
		endedCount++
	}

	if endedCount > 0 {
		logger.Log.Info().
			Int("ended_count", endedCount).
			Int("active_count", len(sessions)-endedCount).
			Msg("Cleanup cycle completed")
	}
}

// endIdle removes a session the client abandoned, bookmarking its last known position
func (m *Manager) endIdle(session *Session) {
	if session.Mode == snapback.OnDemand {
		position, _ := session.position()

		ctx, cancel := context.WithTimeout(context.Background(), m.config.RequestTimeout)
		err := m.saveBookmark(ctx, session, position)
		cancel()

		if err != nil {
			logger.Log.Error().
				Err(err).
				Str("session_id", session.ID.String()).
				Msg("Failed to save bookmark for abandoned session")
		}
	}

	m.remove(session.ID)
}
