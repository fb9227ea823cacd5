package snapback

// Interceptor sits in front of the player's seek hook. It never moves the player itself.
type Interceptor struct {
	policy      *Policy
	breakActive bool
}

// NewInterceptor creates an interceptor around policy
func NewInterceptor(policy *Policy) *Interceptor {
	return &Interceptor{policy: policy}
}

// Intercept returns the time the player should actually seek to.
func (i *Interceptor) Intercept(currentTime, requestedTime float64, mode PlaybackMode) float64 {
	return i.Evaluate(currentTime, requestedTime, mode).Time
}

// Evaluate is Intercept with the outcome attached.
// While an ad break is rendering every seek is refused and the policy is not consulted.
func (i *Interceptor) Evaluate(currentTime, requestedTime float64, mode PlaybackMode) SeekResult {
	if i.breakActive {
		return SeekResult{Time: currentTime, Outcome: OutcomeRefused, Original: requestedTime}
	}

	decision := i.policy.EvaluateSeek(currentTime, requestedTime, mode)
	if decision.Kind == Redirect {
		return SeekResult{Time: decision.Target, Outcome: OutcomeRedirected, Original: decision.Original}
	}
	return SeekResult{Time: requestedTime, Outcome: OutcomeHonored, Original: requestedTime}
}

// SetBreakActive records whether an ad break is currently playing.
func (i *Interceptor) SetBreakActive(active bool) {
	i.breakActive = active
}

// BreakActive reports whether an ad break is currently playing.
func (i *Interceptor) BreakActive() bool {
	return i.breakActive
}
