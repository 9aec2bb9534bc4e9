package call

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/vishnusiva/callmate/backend/internal/model/call"
	"github.com/vishnusiva/callmate/backend/internal/model/speech"
)

// Transcriber converts a spoken utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*speech.TranscriptionResult, error)
}

// Generator produces the assistant reply for one turn given the
// accumulated transcript and the new utterance.
type Generator interface {
	GenerateReply(ctx context.Context, turns []call.Turn, userText string) (string, error)
}

// Synthesizer renders reply text as encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*speech.SynthesisResult, error)
}

// Timeouts bounds each external service call within a turn.
type Timeouts struct {
	Transcribe time.Duration
	Generate   time.Duration
	Synthesize time.Duration
}

// Orchestrator drives the per-turn pipeline: transcribe the caller's
// audio, generate a reply from the session transcript, synthesize the
// reply, and only then record the turn.
type Orchestrator struct {
	store       *Store
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	timeouts    Timeouts
}

// NewOrchestrator wires the turn pipeline over the given store and
// service adapters.
func NewOrchestrator(store *Store, t Transcriber, g Generator, s Synthesizer, timeouts Timeouts) *Orchestrator {
	return &Orchestrator{
		store:       store,
		transcriber: t,
		generator:   g,
		synthesizer: s,
		timeouts:    timeouts,
	}
}

// StartCall opens (or resets) the session for userID.
func (o *Orchestrator) StartCall(_ context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingIdentifier
	}

	o.store.Open(userID)
	log.Printf("[call] started call for user=%s", userID)
	return nil
}

// EndCall closes the session for userID, discarding its transcript.
// Ending an unknown session is a no-op.
func (o *Orchestrator) EndCall(_ context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingIdentifier
	}

	if o.store.Close(userID) {
		log.Printf("[call] ended call for user=%s", userID)
	}
	return nil
}

// ActiveSessions reports how many calls are currently open.
func (o *Orchestrator) ActiveSessions() int {
	return o.store.Len()
}

// ProcessTurn runs one full voice turn for an active session and
// returns the synthesized reply audio.
//
// The session lock is held for the whole turn so concurrent turns for
// one caller serialize in arrival order. The transcript append is the
// last step: a failure in any service leaves the session exactly as it
// was, so the caller can resubmit the same audio without duplicating
// history.
func (o *Orchestrator) ProcessTurn(ctx context.Context, userID string, audio io.Reader, filename string) (*speech.SynthesisResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingIdentifier
	}

	lease, err := o.store.Acquire(userID)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	turns := lease.Turns()

	start := time.Now()

	transcription, err := o.transcribe(ctx, audio, filename)
	if err != nil {
		return nil, err
	}
	log.Printf("[call] transcribed turn for user=%s, chars=%d", userID, len(transcription.Text))

	reply, err := o.generate(ctx, turns, transcription.Text)
	if err != nil {
		return nil, err
	}
	log.Printf("[call] generated reply for user=%s, chars=%d", userID, len(reply))

	synthesis, err := o.synthesize(ctx, reply)
	if err != nil {
		return nil, err
	}

	turn := call.Turn{UserText: transcription.Text, ReplyText: reply}
	if err := o.store.Append(lease, turn); err != nil {
		// The call ended or was restarted while this turn was in
		// flight; the stale turn is discarded.
		return nil, err
	}

	log.Printf("[call] completed turn for user=%s in %s", userID, time.Since(start).Round(time.Millisecond))
	return synthesis, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, audio io.Reader, filename string) (*speech.TranscriptionResult, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.Transcribe)
	defer cancel()

	result, err := o.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, classify(err, ErrTranscriptionFailed)
	}
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, turns []call.Turn, userText string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.Generate)
	defer cancel()

	reply, err := o.generator.GenerateReply(ctx, turns, userText)
	if err != nil {
		return "", classify(err, ErrGenerationFailed)
	}
	return reply, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) (*speech.SynthesisResult, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.Synthesize)
	defer cancel()

	result, err := o.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return nil, classify(err, ErrSynthesisFailed)
	}
	return result, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// classify wraps an adapter error under its pipeline-stage sentinel.
// Deadline overruns surface as ErrServiceTimeout; a caller-side
// cancellation passes through untouched so it is not blamed on the
// upstream service.
func classify(err error, stage error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrServiceTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, stage) {
		return err
	}
	return fmt.Errorf("%w: %v", stage, err)
}
