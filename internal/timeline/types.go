package timeline

// Position describes where a stream-time playhead sits relative to the ad breaks.
type Position struct {
	// StreamTime is the playhead position including ad breaks (seconds)
	StreamTime float64 `json:"stream_time"`

	// ContentTime is the same position with all preceding ad time removed (seconds).
	// Inside a break it is the content time at the break start.
	ContentTime float64 `json:"content_time"`

	// InBreak is true when StreamTime falls inside an ad break
	InBreak bool `json:"in_break"`

	// BreaksBefore counts the ad breaks that finished before StreamTime
	BreaksBefore int `json:"breaks_before"`

	// AdSecondsBefore is the total ad time that precedes StreamTime
	AdSecondsBefore float64 `json:"ad_seconds_before"`
}
