package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/cuepoint"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/metrics"
	"github.com/stwalsh4118/snapback/internal/models"
	"github.com/stwalsh4118/snapback/internal/snapback"
)

// CommandType identifies an instruction the client player must carry out
type CommandType string

// Command types
const (
	CommandSeek CommandType = "seek"
)

// Command is a corrective instruction issued by the coordinator
type Command struct {
	Type CommandType `json:"type"`
	Time float64     `json:"time"`
}

// Session is one player's playback of a catalog stream.
// It is NOT persisted; every coordinator call is serialized by mu.
type Session struct {
	ID        uuid.UUID
	StreamID  uuid.UUID
	Mode      snapback.PlaybackMode
	StartedAt time.Time

	coordinator  *snapback.Coordinator
	commands     []Command
	lastPosition float64
	lastActivity time.Time
	mu           sync.Mutex
}

// Snapshot is a point-in-time copy of a session's state
type Snapshot struct {
	ID           uuid.UUID                 `json:"id"`
	StreamID     uuid.UUID                 `json:"stream_id"`
	Mode         string                    `json:"mode"`
	State        snapback.State            `json:"state"`
	BreakActive  bool                      `json:"break_active"`
	Pending      *snapback.PendingSnapback `json:"pending,omitempty"`
	Cuepoints    []cuepoint.Cuepoint       `json:"cuepoints"`
	LastPosition float64                   `json:"last_position"`
	StartedAt    time.Time                 `json:"started_at"`
	LastActivity time.Time                 `json:"last_activity"`
}

// newSession creates a session for stream. Corrective seeks are queued as commands
// and handed back to the caller of the event that caused them.
func newSession(stream *models.Stream, mode snapback.PlaybackMode, tolerance float64) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.New(),
		StreamID:     stream.ID,
		Mode:         mode,
		StartedAt:    now,
		lastActivity: now,
	}
	s.coordinator = snapback.NewCoordinator(mode, snapback.SeekerFunc(s.queueSeek), tolerance)
	return s
}

// queueSeek is the session's Seeker; the caller already holds mu
func (s *Session) queueSeek(to float64) {
	s.commands = append(s.commands, Command{Type: CommandSeek, Time: to})
	s.lastPosition = to
}

// drainCommands returns and clears the queued commands; the caller holds mu
func (s *Session) drainCommands() []Command {
	commands := s.commands
	s.commands = nil
	if commands == nil {
		return []Command{}
	}
	return commands
}

func (s *Session) touch() {
	s.lastActivity = time.Now().UTC()
}

// UpdateCuepoints replaces the session's cuepoints. A malformed list is still applied
// and the validation error is returned so the caller can report it.
func (s *Session) UpdateCuepoints(cuepoints []cuepoint.Cuepoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	err := s.coordinator.Handle(snapback.Event{
		Type:      snapback.EventCuepointsChanged,
		Cuepoints: cuepoints,
	})
	if err != nil {
		s.logMalformed(err)
		return err
	}

	logger.Log.Debug().
		Str("session_id", s.ID.String()).
		Int("count", len(cuepoints)).
		Msg("Cuepoints updated")

	return nil
}

// Seek runs a seek intent through the coordinator and returns where the player should go
func (s *Session) Seek(currentTime, requestedTime float64) snapback.SeekResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	result := s.coordinator.Seek(currentTime, requestedTime)
	s.lastPosition = result.Time

	metrics.RecordSeekDecision(s.Mode.String(), string(result.Outcome))

	if result.Outcome == snapback.OutcomeRedirected {
		logger.Log.Info().
			Str("session_id", s.ID.String()).
			Float64("requested_time", requestedTime).
			Float64("break_start", result.Time).
			Msg("Seek redirected to unplayed ad break")
	}

	return result
}

// HandleEvent applies one ad-session or player event and returns any corrective
// commands it produced. Malformed cuepoint updates return the commands together
// with the validation error.
func (s *Session) HandleEvent(ev snapback.Event) ([]Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if ev.Type == snapback.EventScanStarted || ev.Type == snapback.EventScanEnded {
		s.lastPosition = ev.Time
	}

	err := s.coordinator.Handle(ev)
	commands := s.drainCommands()
	metrics.RecordCorrectiveSeeks(string(ev.Type), len(commands))

	if err != nil {
		if cuepoint.IsMalformed(err) {
			s.logMalformed(err)
			return commands, err
		}
		logger.Log.Warn().
			Err(err).
			Str("session_id", s.ID.String()).
			Str("event", string(ev.Type)).
			Msg("Rejected session event")
		return nil, err
	}

	for _, cmd := range commands {
		logger.Log.Info().
			Str("session_id", s.ID.String()).
			Str("event", string(ev.Type)).
			Float64("seek_time", cmd.Time).
			Msg("Issued corrective seek")
	}

	return commands, nil
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.ID,
		StreamID:     s.StreamID,
		Mode:         s.Mode.String(),
		State:        s.coordinator.State(),
		BreakActive:  s.coordinator.BreakActive(),
		Cuepoints:    s.coordinator.Cuepoints(),
		LastPosition: s.lastPosition,
		StartedAt:    s.StartedAt,
		LastActivity: s.lastActivity,
	}
	if pending, ok := s.coordinator.Pending(); ok {
		snap.Pending = &pending
	}
	return snap
}

// position returns the last known playhead and a copy of the cuepoints
func (s *Session) position() (float64, []cuepoint.Cuepoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPosition, s.coordinator.Cuepoints()
}

// idleSince reports how long the session has gone without a call at now
func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity)
}

func (s *Session) logMalformed(err error) {
	metrics.RecordMalformedCuepoints()
	logger.Log.Warn().
		Err(err).
		Str("session_id", s.ID.String()).
		Msg("Malformed cuepoint list applied best effort")
}
