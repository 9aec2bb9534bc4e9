package speech

import "testing"

func TestProbeMP3DurationInvalidStream(t *testing.T) {
	if d := ProbeMP3Duration([]byte("definitely not mp3")); d != 0 {
		t.Fatalf("expected 0 for invalid stream, got %d", d)
	}
	if d := ProbeMP3Duration(nil); d != 0 {
		t.Fatalf("expected 0 for empty stream, got %d", d)
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"input.wav", "audio/wav"},
		{"INPUT.WAV", "audio/wav"},
		{"clip.mp3", "audio/mpeg"},
		{"clip.webm", "audio/webm"},
		{"clip.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tc := range cases {
		if got := contentTypeFor(tc.filename); got != tc.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}
