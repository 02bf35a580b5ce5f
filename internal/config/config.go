// Package config provides the configuration schema and loader for the
// EchoInStone transcription pipeline.
package config

// LogLevel controls log verbosity for the EchoInStone process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// StorageBackend selects where finished runs are persisted.
type StorageBackend string

const (
	// StorageFile writes one JSON result directory per run.
	StorageFile StorageBackend = "file"

	// StoragePostgres writes runs and segments into PostgreSQL.
	StoragePostgres StorageBackend = "postgres"
)

// IsValid reports whether b is a recognised storage backend.
func (b StorageBackend) IsValid() bool {
	return b == StorageFile || b == StoragePostgres
}

// Config is the root configuration structure for EchoInStone.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Align     AlignConfig     `yaml:"align"`
	Media     MediaConfig     `yaml:"media"`
	Output    OutputConfig    `yaml:"output"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists origins permitted by the CORS middleware. Empty
	// means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. The optional fallback entries wrap the stage in automatic
// failover: the fallback is tried when the primary fails or its circuit
// breaker is open.
type ProvidersConfig struct {
	Transcribe         ProviderEntry  `yaml:"transcribe"`
	TranscribeFallback *ProviderEntry `yaml:"transcribe_fallback"`
	Diarize            ProviderEntry  `yaml:"diarize"`
	DiarizeFallback    *ProviderEntry `yaml:"diarize_fallback"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "whisper", "openai",
	// "pyannote", "energy").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider: a whisper.cpp model file
	// path for "whisper", a model name like "whisper-1" for "openai".
	Model string `yaml:"model"`

	// Language forces the transcript language. Empty means auto-detect.
	Language string `yaml:"language"`
}

// AlignConfig tunes the alignment engine. Unset fields take the engine's
// defaults; set fields are validated strictly because a bad threshold
// silently corrupts every result.
type AlignConfig struct {
	// OverlapThreshold is the minimum fraction of a chunk a speaker must
	// cover for attribution. Must be in [0, 1] when set.
	OverlapThreshold *float64 `yaml:"overlap_threshold"`

	// GapTolerance is the maximum gap in seconds bridged when merging
	// consecutive same-speaker segments. Must be >= 0 when set.
	GapTolerance *float64 `yaml:"gap_tolerance"`
}

// MediaConfig controls audio acquisition and conversion.
type MediaConfig struct {
	// WorkDir is where downloaded and converted audio files are placed.
	// Defaults to the system temp directory.
	WorkDir string `yaml:"work_dir"`

	// VoiceFilter enables the speech band-pass filter during WAV conversion.
	VoiceFilter bool `yaml:"voice_filter"`
}

// OutputConfig controls run persistence.
type OutputConfig struct {
	// Backend selects the store implementation. Defaults to "file".
	Backend StorageBackend `yaml:"backend"`

	// Dir is the root directory for the file backend.
	Dir string `yaml:"dir"`

	// ResultName is the file name the file backend writes inside each run
	// directory. Must be a bare file name. Defaults to
	// speaker_transcriptions.json.
	ResultName string `yaml:"result_name"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`
}
