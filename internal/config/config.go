// Package config provides the configuration schema, loader, and recognizer
// registry for the audioscribe transcription service.
package config

// LogLevel controls log verbosity for the audioscribe server.
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

// Config is the root configuration structure for audioscribe.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Recognizer RecognizerEntry `yaml:"recognizer"`
	Acquire    AcquireConfig   `yaml:"acquire"`
	Pipeline   PipelineConfig  `yaml:"pipeline"`
}

// ServerConfig holds network and logging settings for the audioscribe server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// RecognizerEntry selects and configures the speech recognition backend.
// The Name field is used to look up the constructor in the [Registry].
type RecognizerEntry struct {
	// Name selects the registered recognizer implementation
	// ("whisper", "whisper-native", or "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for hosted backends.
	APIKey string `yaml:"api_key"`

	// BaseURL is the backend endpoint for server-based recognizers
	// (e.g., "http://localhost:8080" for whisper-server), or an API base
	// override for hosted ones.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the backend. For "whisper-native" this is
	// the ggml model file path; for hosted backends a model name like
	// "whisper-1".
	Model string `yaml:"model"`

	// Options holds recognizer-specific configuration values not covered by
	// the standard fields above (e.g., "language").
	Options map[string]any `yaml:"options"`
}

// AcquireConfig holds settings for the audio acquisition stage.
type AcquireConfig struct {
	// WorkDir is the directory for temporary audio artifacts. Empty means
	// the system temp directory.
	WorkDir string `yaml:"work_dir"`

	// YtDlpPath is the yt-dlp executable used for remote-video downloads.
	// Empty means "yt-dlp" from PATH.
	YtDlpPath string `yaml:"ytdlp_path"`

	// FFmpegPath is the ffmpeg executable used for audio transcoding.
	// Empty means "ffmpeg" from PATH.
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// PipelineConfig holds settings for the normalization pipeline.
type PipelineConfig struct {
	// DedupeWords enables the adjacent-word deduplication refinement on the
	// flat transcript ("the the cat" → "the cat"). Off by default.
	DedupeWords bool `yaml:"dedupe_words"`
}
