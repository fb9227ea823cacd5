package cuepoint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCuepoints indicates the cuepoint list had overlapping or inverted ranges.
// The list is still stored as a best effort.
var ErrMalformedCuepoints = errors.New("malformed cuepoint list")

// Issue describes one problem found in a cuepoint list.
type Issue struct {
	Index  int
	Reason string
}

// ValidationError lists every issue found in a cuepoint list
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("cuepoint %d: %s", issue.Index, issue.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrMalformedCuepoints, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrMalformedCuepoints.
func (e *ValidationError) Unwrap() error {
	return ErrMalformedCuepoints
}

// IsMalformed checks if the error is a malformed cuepoint list error
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedCuepoints)
}

// validate expects cuepoints sorted by StartTime.
func validate(cuepoints []Cuepoint) error {
	var issues []Issue
	for i, c := range cuepoints {
		if c.StartTime < 0 {
			issues = append(issues, Issue{Index: i, Reason: "negative start time"})
		}
		if c.EndTime < c.StartTime {
			issues = append(issues, Issue{Index: i, Reason: "end time before start time"})
		}
		if i > 0 && c.StartTime < cuepoints[i-1].EndTime {
			issues = append(issues, Issue{Index: i, Reason: fmt.Sprintf("overlaps cuepoint %d", i-1)})
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
