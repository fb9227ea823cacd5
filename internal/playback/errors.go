package playback

import "errors"

// Playback session errors
var (
	// ErrSessionNotFound indicates no session is registered under the given ID
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions indicates the configured session limit has been reached
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrManagerStopped indicates the manager no longer accepts sessions
	ErrManagerStopped = errors.New("playback manager has been stopped")
)

// IsSessionNotFound checks if the error is a session not found error
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsTooManySessions checks if the error is a session limit error
func IsTooManySessions(err error) bool {
	return errors.Is(err, ErrTooManySessions)
}
