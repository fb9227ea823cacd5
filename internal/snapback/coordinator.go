package snapback

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/snapback/internal/cuepoint"
	"github.com/stwalsh4118/snapback/internal/logger"
)

// ErrUnknownEvent is returned by Handle for event types it does not understand
var ErrUnknownEvent = errors.New("unknown event type")

// EventType identifies an ad-session or player event
type EventType string

// Event types consumed by the coordinator
const (
	EventCuepointsChanged EventType = "cuepoints_changed"
	EventAdBreakStarted   EventType = "ad_break_started"
	EventAdBreakEnded     EventType = "ad_break_ended"
	EventBreakPlayed      EventType = "break_played"
	EventScanStarted      EventType = "scan_started"
	EventScanEnded        EventType = "scan_ended"
)

// Event is one message from the ad session or the player.
//   - CuepointsChanged uses Cuepoints
//   - BreakPlayed uses StartTime
//   - ScanStarted and ScanEnded use Time (the playhead position)
type Event struct {
	Type      EventType
	Cuepoints []cuepoint.Cuepoint
	StartTime float64
	Time      float64
}

// Coordinator is the explicit state of one playback session: cuepoints, the pending
// snapback, whether a break is rendering and any scan in progress.
// It is single-threaded; callers deliver seeks and events serially.
type Coordinator struct {
	mode        PlaybackMode
	store       *cuepoint.Store
	policy      *Policy
	interceptor *Interceptor
	resumer     *Resumer
	seeker      Seeker
	scanning    bool
	scanOrigin  float64
}

// NewCoordinator wires a store, policy, interceptor and resumer for one session.
// Corrective seeks (break-end resume, scan snapback) go straight to seeker.
func NewCoordinator(mode PlaybackMode, seeker Seeker, tolerance float64) *Coordinator {
	store := cuepoint.NewStore(tolerance)
	policy := NewPolicy(store)
	return &Coordinator{
		mode:        mode,
		store:       store,
		policy:      policy,
		interceptor: NewInterceptor(policy),
		resumer:     NewResumer(policy, store, seeker, tolerance),
		seeker:      seeker,
	}
}

// Seek intercepts a user- or program-initiated seek and returns where to go.
func (c *Coordinator) Seek(currentTime, requestedTime float64) SeekResult {
	result := c.interceptor.Evaluate(currentTime, requestedTime, c.mode)

	logger.Log.Debug().
		Str("mode", c.mode.String()).
		Float64("current_time", currentTime).
		Float64("requested_time", requestedTime).
		Float64("effective_time", result.Time).
		Str("outcome", string(result.Outcome)).
		Msg("Seek intercepted")

	return result
}

// Handle applies one event. Malformed cuepoint lists are stored anyway and the
// validation error is returned for logging only.
func (c *Coordinator) Handle(ev Event) error {
	switch ev.Type {
	case EventCuepointsChanged:
		return c.store.ReplaceAll(ev.Cuepoints)

	case EventAdBreakStarted:
		c.interceptor.SetBreakActive(true)

	case EventAdBreakEnded:
		c.interceptor.SetBreakActive(false)
		if target, ok := c.resumer.OnAdBreakEnded(); ok {
			logger.Log.Debug().
				Float64("resume_time", target).
				Msg("Resumed after snapback")
		}

	case EventBreakPlayed:
		if !c.store.MarkPlayed(ev.StartTime) {
			logger.Log.Debug().
				Float64("start_time", ev.StartTime).
				Msg("Played break does not match any cuepoint")
		}

	case EventScanStarted:
		c.scanning = true
		c.scanOrigin = ev.Time

	case EventScanEnded:
		c.endScan(ev.Time)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

// endScan applies the policy to a completed fast-forward or rewind. The player has
// already moved, so a redirect is issued as a direct seek.
func (c *Coordinator) endScan(landedAt float64) {
	if !c.scanning {
		return
	}
	origin := c.scanOrigin
	c.scanning = false
	c.scanOrigin = 0

	if c.mode == Live || c.interceptor.BreakActive() {
		return
	}

	decision := c.policy.EvaluateSeek(origin, landedAt, c.mode)
	if decision.Kind == Redirect {
		c.seeker.Seek(decision.Target)
	}
}

// State reports whether a snapback is waiting for a break to end.
func (c *Coordinator) State() State {
	if _, ok := c.policy.Pending(); ok {
		return StateSnapbackPending
	}
	return StateIdle
}

// Pending returns the active pending snapback, if any.
func (c *Coordinator) Pending() (PendingSnapback, bool) {
	return c.policy.Pending()
}

// BreakActive reports whether an ad break is rendering.
func (c *Coordinator) BreakActive() bool {
	return c.interceptor.BreakActive()
}

// Mode returns the session's playback mode.
func (c *Coordinator) Mode() PlaybackMode {
	return c.mode
}

// Cuepoints returns a copy of the current cuepoint list.
func (c *Coordinator) Cuepoints() []cuepoint.Cuepoint {
	return c.store.List()
}
