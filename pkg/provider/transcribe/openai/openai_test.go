package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/echoinstone/echoinstone/pkg/provider/transcribe/openai"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestNew_EmptyAPIKeyDefersToEnv(t *testing.T) {
	t.Parallel()

	if _, err := openai.New("", "whisper-1"); err != nil {
		t.Errorf("New with empty apiKey should defer to the environment, got %v", err)
	}
}

func TestTranscribe_ParsesVerboseSegments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q, want verbose_json", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"text": "hello world",
			"language": "english",
			"duration": 9.0,
			"segments": [
				{"start": 0.0, "end": 5.0, "text": " hello"},
				{"start": 5.0, "end": 9.0, "text": " world"},
				{"start": 9.0, "end": 9.0, "text": "  "}
			]
		}`))
	}))
	defer srv.Close()

	p, err := openai.New("test-key", "whisper-1", openai.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := p.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if result.Language != "english" {
		t.Errorf("Language = %q, want english", result.Language)
	}
	// The whitespace-only third segment is dropped.
	if len(result.Chunks) != 2 {
		t.Fatalf("Chunks = %d, want 2", len(result.Chunks))
	}
	if result.Chunks[0].Text != "hello" || result.Chunks[0].Start != 0 {
		t.Errorf("chunk 0 = %+v", result.Chunks[0])
	}
	if result.Chunks[1].End == nil || *result.Chunks[1].End != 9 {
		t.Errorf("chunk 1 end = %v, want 9", result.Chunks[1].End)
	}
}

func TestTranscribe_PropagatesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	p, err := openai.New("bad-key", "", openai.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Transcribe(context.Background(), writeTempAudio(t)); err == nil {
		t.Error("Transcribe: expected error for 401 response")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	t.Parallel()

	p, err := openai.New("key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Transcribe: expected error for missing file")
	}
}
