package pyannote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/echoinstone/echoinstone/pkg/provider/diarize/pyannote"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := pyannote.New(""); err == nil {
		t.Error("New(\"\"): expected error")
	}
}

func TestDiarize_ParsesSegments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/diarize" {
			t.Errorf("path = %q, want /diarize", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, header, err := r.FormFile("file"); err != nil {
			t.Errorf("form file: %v", err)
		} else if header.Filename != "audio.wav" {
			t.Errorf("filename = %q, want audio.wav", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"segments": [
				{"start": 0.0, "end": 4.5, "speaker": "SPEAKER_00"},
				{"start": 4.5, "end": 9.0, "speaker": "SPEAKER_01"},
				{"start": 9.0, "end": 9.0, "speaker": "SPEAKER_00"},
				{"start": 9.0, "end": 10.0, "speaker": ""}
			],
			"num_speakers": 2
		}`))
	}))
	defer srv.Close()

	p, err := pyannote.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	turns, err := p.Diarize(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}

	// The zero-length turn and the unlabelled turn are dropped.
	if len(turns) != 2 {
		t.Fatalf("turns = %+v, want 2 entries", turns)
	}
	if turns[0].Speaker != "SPEAKER_00" || turns[0].End != 4.5 {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Speaker != "SPEAKER_01" || turns[1].Start != 4.5 {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestDiarize_ServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := pyannote.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Diarize(context.Background(), writeTempAudio(t)); err == nil {
		t.Error("Diarize: expected error for 503 response")
	}
}

func TestDiarize_MissingFile(t *testing.T) {
	t.Parallel()

	p, err := pyannote.New("http://localhost:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Diarize(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Diarize: expected error for missing file")
	}
}
