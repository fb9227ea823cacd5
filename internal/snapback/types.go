// Package snapback decides where a seek should really land when unwatched ad breaks
// sit between the playhead and the requested position, and resumes the user's
// original destination once the break they were sent back to has finished.
package snapback

import (
	"errors"
	"fmt"
)

// ErrInvalidMode is returned when a playback mode string is not recognised
var ErrInvalidMode = errors.New("invalid playback mode")

// PlaybackMode determines whether snapback applies at all
type PlaybackMode int

// Playback modes
const (
	OnDemand PlaybackMode = iota
	Live
)

// String returns the string representation of the playback mode
func (m PlaybackMode) String() string {
	switch m {
	case Live:
		return "live"
	case OnDemand:
		return "vod"
	default:
		return "unknown"
	}
}

// ParseMode converts "live" or "vod" into a PlaybackMode
func ParseMode(s string) (PlaybackMode, error) {
	switch s {
	case "live":
		return Live, nil
	case "vod":
		return OnDemand, nil
	default:
		return OnDemand, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// DecisionKind is the outcome of evaluating a seek against the cuepoint list
type DecisionKind int

// Decision kinds
const (
	Honor DecisionKind = iota
	Redirect
)

// String returns the string representation of the decision kind
func (k DecisionKind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "honor"
}

// Decision is the policy's answer for one seek intent.
// For Redirect, Target is the break start and Original is where the user wanted to go.
type Decision struct {
	Kind     DecisionKind
	Target   float64
	Original float64
}

// PendingSnapback is the single deferred seek waiting for a break to finish
type PendingSnapback struct {
	OriginalTargetTime float64 `json:"original_target_time"`
	BreakStart         float64 `json:"break_start"`
	BreakEnd           float64 `json:"break_end"`
	Active             bool    `json:"active"`
}

// State is the per-session snapback state
type State string

// Snapback states
const (
	StateIdle            State = "idle"
	StateSnapbackPending State = "snapback_pending"
)

// Outcome describes what the interceptor did with a seek
type Outcome string

// Seek outcomes
const (
	OutcomeHonored    Outcome = "honored"
	OutcomeRedirected Outcome = "redirected"
	OutcomeRefused    Outcome = "refused"
)

// SeekResult is the effective target of an intercepted seek
type SeekResult struct {
	Time     float64 `json:"effective_time"`
	Outcome  Outcome `json:"outcome"`
	Original float64 `json:"original_time,omitempty"`
}

// Seeker moves the player. Seeks are fire-and-forget.
type Seeker interface {
	Seek(to float64)
}

// SeekerFunc adapts a function to the Seeker interface
type SeekerFunc func(to float64)

// Seek calls f(to)
func (f SeekerFunc) Seek(to float64) {
	f(to)
}
