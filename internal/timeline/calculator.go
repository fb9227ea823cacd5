// Package timeline maps between stream time (what the player sees, ads included) and
// content time (the main video alone) so bookmarks survive changing ad schedules.
package timeline

import (
	"github.com/stwalsh4118/snapback/internal/cuepoint"
)

// Locate calculates the position of streamTime relative to the ad breaks.
// cuepoints must be sorted by StartTime, as returned by cuepoint.Store.List.
//
// Performance: O(n) in the number of breaks before streamTime
func Locate(streamTime float64, cuepoints []cuepoint.Cuepoint) (Position, error) {
	if streamTime < 0 {
		return Position{}, ErrNegativeTime
	}

	pos := Position{StreamTime: streamTime}
	for _, c := range cuepoints {
		if c.StartTime >= streamTime {
			break
		}
		if streamTime < c.EndTime {
			// Inside this break: only the part already elapsed counts as ad time
			pos.InBreak = true
			pos.AdSecondsBefore += streamTime - c.StartTime
			break
		}
		pos.BreaksBefore++
		pos.AdSecondsBefore += c.Duration()
	}

	pos.ContentTime = streamTime - pos.AdSecondsBefore
	return pos, nil
}

// ContentTimeForStreamTime removes the ad time that precedes streamTime
func ContentTimeForStreamTime(streamTime float64, cuepoints []cuepoint.Cuepoint) (float64, error) {
	pos, err := Locate(streamTime, cuepoints)
	if err != nil {
		return 0, err
	}
	return pos.ContentTime, nil
}

// StreamTimeForContentTime adds the duration of every break that starts before the
// resulting stream position. A content time exactly at a break start maps to the
// break start, so resuming there plays the break.
func StreamTimeForContentTime(contentTime float64, cuepoints []cuepoint.Cuepoint) (float64, error) {
	if contentTime < 0 {
		return 0, ErrNegativeTime
	}

	streamTime := contentTime
	for _, c := range cuepoints {
		if c.StartTime >= streamTime {
			break
		}
		streamTime += c.Duration()
	}
	return streamTime, nil
}
