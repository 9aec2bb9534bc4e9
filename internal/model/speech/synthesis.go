package speech

import "time"

// SynthesisResult carries the encoded audio for one synthesized reply.
// Duration is a best-effort probe of the encoded stream, in
// milliseconds; zero when the probe fails.
type SynthesisResult struct {
	AudioData []byte    `json:"-"`
	Format    string    `json:"format"`
	Duration  int64     `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}
