package call

import "time"

// Session captures one caller's transient conversation state. It lives
// only for the duration of a call and is dropped when the call ends.
type Session struct {
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
	Turns     []Turn    `json:"turns"`
}
