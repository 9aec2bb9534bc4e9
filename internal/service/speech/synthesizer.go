package speech

import (
	"bytes"
	"context"
	"fmt"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/vishnusiva/callmate/backend/internal/config"
	speechModel "github.com/vishnusiva/callmate/backend/internal/model/speech"
)

// Synthesizer renders reply text as MP3 audio through Google Cloud
// text-to-speech.
type Synthesizer struct {
	client *texttospeech.Client
	cfg    config.SpeechConfig
}

// NewSynthesizer dials the text-to-speech service using application
// default credentials.
func NewSynthesizer(ctx context.Context, cfg config.SpeechConfig) (*Synthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	return &Synthesizer{client: client, cfg: cfg}, nil
}

// Close releases the underlying gRPC connection.
func (s *Synthesizer) Close() error {
	return s.client.Close()
}

// Synthesize converts text into MP3 bytes in the configured language
// and voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*speechModel.SynthesisResult, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.cfg.TTSLanguage,
			Name:         s.cfg.TTSVoice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  s.cfg.TTSSpeakingRate,
		},
	}

	resp, err := s.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request failed: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio")
	}

	return &speechModel.SynthesisResult{
		AudioData: resp.AudioContent,
		Format:    "mp3",
		Duration:  ProbeMP3Duration(resp.AudioContent),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ProbeMP3Duration decodes the MP3 header to estimate playback length
// in milliseconds. Best effort: returns 0 when the stream cannot be
// decoded.
func ProbeMP3Duration(data []byte) int64 {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return 0
	}

	// Decoded stream is 16-bit stereo PCM, 4 bytes per sample frame.
	frames := decoder.Length() / 4
	return frames * 1000 / int64(sampleRate)
}
