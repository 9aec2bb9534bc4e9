package speech

import "time"

// TranscriptionResult is the outcome of one speech-to-text call.
type TranscriptionResult struct {
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
