package catalog

import "errors"

// Custom catalog service errors
var (
	// ErrDuplicateStreamName indicates a stream with the same name already exists
	ErrDuplicateStreamName = errors.New("stream name already exists")

	// ErrInvalidStreamSource indicates the source identifiers do not match the stream mode
	ErrInvalidStreamSource = errors.New("invalid stream source")

	// ErrInvalidMode indicates the mode is neither live nor vod
	ErrInvalidMode = errors.New("mode must be live or vod")

	// ErrEmptyName indicates the stream name is blank
	ErrEmptyName = errors.New("stream name is required")

	// ErrStreamNotFound indicates the requested stream does not exist
	ErrStreamNotFound = errors.New("stream not found")
)

// IsDuplicateName checks if the error is a duplicate stream name error
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateStreamName)
}

// IsInvalidStream checks if the error is any stream validation error
func IsInvalidStream(err error) bool {
	return errors.Is(err, ErrInvalidStreamSource) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrEmptyName)
}

// IsStreamNotFound checks if the error is a stream not found error
func IsStreamNotFound(err error) bool {
	return errors.Is(err, ErrStreamNotFound)
}
