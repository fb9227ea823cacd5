package snapback

import (
	"github.com/stwalsh4118/snapback/internal/cuepoint"
)

// Policy evaluates seek intents against the live cuepoint state and owns the
// pending snapback slot. Every call re-reads the store; nothing is cached.
type Policy struct {
	store   *cuepoint.Store
	pending PendingSnapback
}

// NewPolicy creates a policy reading from store
func NewPolicy(store *cuepoint.Store) *Policy {
	return &Policy{store: store}
}

// EvaluateSeek decides whether a seek from currentTime to requestedTime is honored or
// redirected to the start of an unplayed break.
//
// Only forward jumps that originate before an unplayed break's start are redirected.
// Seeks from inside or after the break start (ties included) are honored, as are all
// seeks on live streams. A redirect overwrites any pending snapback; an honored seek
// clears it.
func (p *Policy) EvaluateSeek(currentTime, requestedTime float64, mode PlaybackMode) Decision {
	if mode == Live {
		return p.honor(requestedTime)
	}

	cue, ok := p.store.Previous(requestedTime)
	if !ok || cue.Played {
		return p.honor(requestedTime)
	}

	if currentTime >= cue.StartTime {
		return p.honor(requestedTime)
	}

	p.pending = PendingSnapback{
		OriginalTargetTime: requestedTime,
		BreakStart:         cue.StartTime,
		BreakEnd:           cue.EndTime,
		Active:             true,
	}
	return Decision{Kind: Redirect, Target: cue.StartTime, Original: requestedTime}
}

// Pending returns the active pending snapback, if any.
func (p *Policy) Pending() (PendingSnapback, bool) {
	return p.pending, p.pending.Active
}

func (p *Policy) honor(requestedTime float64) Decision {
	p.pending = PendingSnapback{}
	return Decision{Kind: Honor, Target: requestedTime, Original: requestedTime}
}

// take clears and returns the pending snapback.
func (p *Policy) take() (PendingSnapback, bool) {
	pending := p.pending
	p.pending = PendingSnapback{}
	return pending, pending.Active
}
