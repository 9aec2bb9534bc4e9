package call

import "errors"

var (
	// ErrMissingIdentifier is returned when a request carries no user id.
	ErrMissingIdentifier = errors.New("missing user identifier")
	// ErrSessionNotFound is returned when a turn references a call that
	// was never started or has already ended.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTranscriptionFailed wraps speech-to-text failures.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrGenerationFailed wraps reply-generation failures.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrSynthesisFailed wraps text-to-speech failures.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrServiceTimeout is returned when an external service call
	// exceeds its configured deadline.
	ErrServiceTimeout = errors.New("service timeout")
)
