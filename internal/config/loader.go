package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per pipeline stage.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"transcribe": {"whisper", "openai"},
	"diarize":    {"pyannote", "energy"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
//
// Alignment tuning mistakes are hard errors: a threshold outside its range
// would silently drop or misattribute every chunk, so it must never reach
// the pipeline.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("transcribe", cfg.Providers.Transcribe.Name)
	validateProviderName("diarize", cfg.Providers.Diarize.Name)
	if fb := cfg.Providers.TranscribeFallback; fb != nil {
		validateProviderName("transcribe", fb.Name)
		if fb.Name == "whisper" && fb.Model == "" {
			errs = append(errs, errors.New("providers.transcribe_fallback.model is required for the whisper provider"))
		}
	}
	if fb := cfg.Providers.DiarizeFallback; fb != nil {
		validateProviderName("diarize", fb.Name)
		if fb.Name == "pyannote" && fb.BaseURL == "" {
			errs = append(errs, errors.New("providers.diarize_fallback.base_url is required for the pyannote provider"))
		}
	}

	if cfg.Providers.Transcribe.Name == "whisper" && cfg.Providers.Transcribe.Model == "" {
		errs = append(errs, errors.New("providers.transcribe.model is required for the whisper provider (path to a ggml model file)"))
	}
	if cfg.Providers.Transcribe.Name == "openai" && cfg.Providers.Transcribe.APIKey == "" {
		slog.Warn("providers.transcribe.api_key is empty; the OpenAI client will fall back to the OPENAI_API_KEY environment variable")
	}
	if cfg.Providers.Diarize.Name == "pyannote" && cfg.Providers.Diarize.BaseURL == "" {
		errs = append(errs, errors.New("providers.diarize.base_url is required for the pyannote provider"))
	}

	// Alignment tuning
	if t := cfg.Align.OverlapThreshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, fmt.Errorf("align.overlap_threshold %v is out of range [0, 1]", *t))
	}
	if g := cfg.Align.GapTolerance; g != nil && *g < 0 {
		errs = append(errs, fmt.Errorf("align.gap_tolerance %v is negative", *g))
	}

	// Output
	if cfg.Output.Backend != "" && !cfg.Output.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("output.backend %q is invalid; valid values: file, postgres", cfg.Output.Backend))
	}
	if cfg.Output.Backend == StoragePostgres && cfg.Output.PostgresDSN == "" {
		errs = append(errs, errors.New("output.postgres_dsn is required when output.backend is postgres"))
	}
	if name := cfg.Output.ResultName; name != "" && name != filepath.Base(name) {
		errs = append(errs, fmt.Errorf("output.result_name %q must be a bare file name, not a path", name))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
