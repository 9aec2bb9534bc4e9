package speech

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/vishnusiva/callmate/backend/internal/config"
	speechModel "github.com/vishnusiva/callmate/backend/internal/model/speech"
)

// Transcriber converts caller audio to text through the OpenAI audio
// API (Whisper). Silent or near-silent input yields an empty or
// near-empty transcript rather than an error.
type Transcriber struct {
	client openai.Client
	cfg    config.SpeechConfig
}

// NewTranscriber validates credentials and builds the Whisper client.
func NewTranscriber(cfg config.SpeechConfig) (*Transcriber, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for transcription")
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	return &Transcriber{client: client, cfg: cfg}, nil
}

// Transcribe sends one utterance for recognition. The filename hint is
// used to tell the API the container format of the uploaded audio.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (*speechModel.TranscriptionResult, error) {
	if filename == "" {
		filename = "audio.wav"
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filename, contentTypeFor(filename)),
		Model: openai.AudioModel(t.cfg.ASRModel),
	}
	if t.cfg.ASRLanguage != "" {
		params.Language = openai.String(t.cfg.ASRLanguage)
	}
	if t.cfg.ASRPrompt != "" {
		params.Prompt = openai.String(t.cfg.ASRPrompt)
	}
	if t.cfg.ASRTemperature != nil {
		params.Temperature = openai.Float(*t.cfg.ASRTemperature)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription request failed: %w", err)
	}

	return &speechModel.TranscriptionResult{
		Text:      strings.TrimSpace(resp.Text),
		Language:  t.cfg.ASRLanguage,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// contentTypeFor infers the upload MIME type from the filename.
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
