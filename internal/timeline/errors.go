package timeline

import "errors"

var (
	// ErrNegativeTime is returned when a stream or content time is below zero
	ErrNegativeTime = errors.New("time must be non-negative")

	// ErrLiveStream is returned when bookmarking is attempted on a live stream,
	// which has no fixed timeline to resume into
	ErrLiveStream = errors.New("live streams cannot be bookmarked")
)
