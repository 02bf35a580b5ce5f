package config_test

import (
	"strings"
	"testing"

	"github.com/echoinstone/echoinstone/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
providers:
  transcribe:
    name: openai
    api_key: sk-test
    model: whisper-1
  diarize:
    name: pyannote
    base_url: http://localhost:9000
align:
  overlap_threshold: 0.6
  gap_tolerance: 1.0
media:
  voice_filter: true
output:
  backend: file
  dir: /tmp/results
  result_name: transcript.json
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.Transcribe.Name != "openai" || cfg.Providers.Diarize.BaseURL != "http://localhost:9000" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if cfg.Align.OverlapThreshold == nil || *cfg.Align.OverlapThreshold != 0.6 {
		t.Errorf("overlap_threshold = %v", cfg.Align.OverlapThreshold)
	}
	if !cfg.Media.VoiceFilter {
		t.Error("voice_filter should be true")
	}
	if cfg.Output.ResultName != "transcript.json" {
		t.Errorf("result_name = %q, want transcript.json", cfg.Output.ResultName)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_address: ":8080"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_AlignThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
align:
  overlap_threshold: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for overlap_threshold 1.5, got nil")
	}
	if !strings.Contains(err.Error(), "overlap_threshold") {
		t.Errorf("error should mention overlap_threshold, got: %v", err)
	}
}

func TestValidate_NegativeGapTolerance(t *testing.T) {
	t.Parallel()
	yaml := `
align:
  gap_tolerance: -0.1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative gap_tolerance, got nil")
	}
	if !strings.Contains(err.Error(), "gap_tolerance") {
		t.Errorf("error should mention gap_tolerance, got: %v", err)
	}
}

func TestValidate_WhisperRequiresModelPath(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  transcribe:
    name: whisper
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for whisper provider without model, got nil")
	}
	if !strings.Contains(err.Error(), "model") {
		t.Errorf("error should mention model, got: %v", err)
	}
}

func TestValidate_PyannoteRequiresBaseURL(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  diarize:
    name: pyannote
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for pyannote provider without base_url, got nil")
	}
	if !strings.Contains(err.Error(), "base_url") {
		t.Errorf("error should mention base_url, got: %v", err)
	}
}

func TestValidate_PostgresBackendRequiresDSN(t *testing.T) {
	t.Parallel()
	yaml := `
output:
  backend: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for postgres backend without DSN, got nil")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("error should mention postgres_dsn, got: %v", err)
	}
}

func TestValidate_ResultNameMustBeBare(t *testing.T) {
	t.Parallel()
	yaml := `
output:
  result_name: nested/transcript.json
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for result_name containing a path, got nil")
	}
	if !strings.Contains(err.Error(), "result_name") {
		t.Errorf("error should mention result_name, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
align:
  overlap_threshold: 2
  gap_tolerance: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	for _, want := range []string{"log_level", "overlap_threshold", "gap_tolerance"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_FallbackEntries(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  transcribe:
    name: openai
  transcribe_fallback:
    name: whisper
  diarize:
    name: pyannote
    base_url: http://localhost:9000
  diarize_fallback:
    name: energy
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for whisper fallback without model, got nil")
	}
	if !strings.Contains(err.Error(), "transcribe_fallback.model") {
		t.Errorf("error should mention transcribe_fallback.model, got: %v", err)
	}
}
