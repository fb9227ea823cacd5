// Package cuepoint holds the authoritative list of ad breaks for a playback session
// and answers the "which break precedes this time" query the seek policy relies on.
package cuepoint

import (
	"math"
	"sort"
)

// DefaultTolerance is the window used to match a break start reported by the ad session
// against the stored cuepoints (1ms).
const DefaultTolerance = 0.001

// Cuepoint is one scheduled or dynamically discovered ad break, in seconds.
type Cuepoint struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Played    bool    `json:"played"`
}

// Duration returns the length of the break in seconds.
func (c Cuepoint) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Store keeps cuepoints in non-decreasing StartTime order.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	cuepoints []Cuepoint
	tolerance float64
}

// NewStore creates an empty store. A non-positive tolerance falls back to DefaultTolerance.
func NewStore(tolerance float64) *Store {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Store{tolerance: tolerance}
}

// ReplaceAll swaps the stored list for cuepoints. Out-of-order input is sorted by StartTime.
// The list is always stored; a non-nil *ValidationError describes overlaps or bad ranges
// found after sorting so the caller can log them.
func (s *Store) ReplaceAll(cuepoints []Cuepoint) error {
	next := make([]Cuepoint, len(cuepoints))
	copy(next, cuepoints)

	if !sort.SliceIsSorted(next, func(i, j int) bool { return next[i].StartTime < next[j].StartTime }) {
		sort.SliceStable(next, func(i, j int) bool { return next[i].StartTime < next[j].StartTime })
	}

	s.cuepoints = next
	return validate(next)
}

// MarkPlayed flags the cuepoint starting at startTime (within tolerance) as played.
// It returns false when no cuepoint matches.
func (s *Store) MarkPlayed(startTime float64) bool {
	i := sort.Search(len(s.cuepoints), func(i int) bool {
		return s.cuepoints[i].StartTime >= startTime-s.tolerance
	})
	for ; i < len(s.cuepoints) && s.cuepoints[i].StartTime <= startTime+s.tolerance; i++ {
		if math.Abs(s.cuepoints[i].StartTime-startTime) <= s.tolerance {
			s.cuepoints[i].Played = true
			return true
		}
	}
	return false
}

// Previous returns the cuepoint with the greatest StartTime <= t.
func (s *Store) Previous(t float64) (Cuepoint, bool) {
	i := s.previousIndex(t)
	if i < 0 {
		return Cuepoint{}, false
	}
	return s.cuepoints[i], true
}

// List returns a copy of the stored cuepoints.
func (s *Store) List() []Cuepoint {
	out := make([]Cuepoint, len(s.cuepoints))
	copy(out, s.cuepoints)
	return out
}

func (s *Store) previousIndex(t float64) int {
	// first index with StartTime > t, minus one
	return sort.Search(len(s.cuepoints), func(i int) bool {
		return s.cuepoints[i].StartTime > t
	}) - 1
}
