package snapback

import (
	"math"

	"github.com/stwalsh4118/snapback/internal/cuepoint"
)

// Resumer resolves the pending snapback when the ad session reports a break ended.
// It seeks the player directly so the corrective seek never re-enters the policy.
// The ad session is expected to mark the break played before or together with the
// break-ended event; the resumer does not mark it.
type Resumer struct {
	policy    *Policy
	store     *cuepoint.Store
	seeker    Seeker
	tolerance float64
}

// NewResumer creates a resumer issuing corrective seeks on seeker
func NewResumer(policy *Policy, store *cuepoint.Store, seeker Seeker, tolerance float64) *Resumer {
	if tolerance <= 0 {
		tolerance = cuepoint.DefaultTolerance
	}
	return &Resumer{policy: policy, store: store, seeker: seeker, tolerance: tolerance}
}

// OnAdBreakEnded seeks to max(original target, break end) when a snapback is pending
// and clears it. It returns the seek target and whether a seek was issued.
func (r *Resumer) OnAdBreakEnded() (float64, bool) {
	pending, ok := r.policy.take()
	if !ok {
		return 0, false
	}

	target := math.Max(pending.OriginalTargetTime, r.breakEnd(pending))
	r.seeker.Seek(target)
	return target, true
}

// breakEnd prefers the store's current bounds for the redirected break, which may have
// been refined since the redirect, over the bounds captured at redirect time.
func (r *Resumer) breakEnd(pending PendingSnapback) float64 {
	cue, ok := r.store.Previous(pending.BreakStart + r.tolerance)
	if ok && math.Abs(cue.StartTime-pending.BreakStart) <= r.tolerance {
		return cue.EndTime
	}
	return pending.BreakEnd
}
