package call

import "time"

// Turn records one completed exchange: what the caller said and what
// the assistant replied. Turns are replayed as context for later turns.
type Turn struct {
	ID        string    `json:"id"`
	UserText  string    `json:"userText"`
	ReplyText string    `json:"replyText"`
	CreatedAt time.Time `json:"createdAt"`
}
