package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/betjuliano/Bard-AI/pkg/logger"
)

// Config represents the application configuration.
type Config struct {
	// HTTP API server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// External API provider settings
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`

	// Media handling settings
	Audio AudioConfig `yaml:"audio" mapstructure:"audio"`

	// Credit ledger settings
	Credits CreditsConfig `yaml:"credits" mapstructure:"credits"`

	// Inbox folder ingestion settings
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`

	// Logging settings
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Path of the BoltDB file holding jobs and credit balances.
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`

	// Directory where uploads are spooled before processing.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`

	// Maximum accepted upload size in bytes.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// ProviderConfig contains external speech/LLM API settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Model used for speech-to-text requests.
	WhisperModel string `yaml:"whisper_model" mapstructure:"whisper_model"`

	// Model used for speaker attribution.
	ChatModel string `yaml:"chat_model" mapstructure:"chat_model"`

	// Target spoken language for transcription requests.
	Language string `yaml:"language" mapstructure:"language"`

	// Per-call timeout for external API requests.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// AudioConfig contains media probing, normalization and splitting settings.
type AudioConfig struct {
	// Maximum duration of a single chunk, in seconds.
	ChunkSeconds int `yaml:"chunk_seconds" mapstructure:"chunk_seconds"`

	// Target sample rate for the normalized stream.
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate"`

	// Target bitrate for the normalized stream, e.g. "64k".
	Bitrate string `yaml:"bitrate" mapstructure:"bitrate"`

	// Directory for normalized and chunked intermediates.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// CreditsConfig contains billing settings.
type CreditsConfig struct {
	// Maximum upload size for a free-trial transcription, in bytes.
	FreeTrialMaxBytes int64 `yaml:"free_trial_max_bytes" mapstructure:"free_trial_max_bytes"`
}

// WatchConfig contains inbox folder ingestion settings.
type WatchConfig struct {
	// Directory to watch for new media files.
	InboxDir string `yaml:"inbox_dir" mapstructure:"inbox_dir"`

	// User the ingested jobs are created under.
	UserID string `yaml:"user_id" mapstructure:"user_id"`

	// File patterns to watch (e.g. "*.mp3", "*.wav").
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`

	// Time to wait for file size stability before submitting.
	StabilityWait time.Duration `yaml:"stability_wait" mapstructure:"stability_wait"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			DatabasePath:   "bardai.db",
			UploadDir:      filepath.Join(os.TempDir(), "bardai", "uploads"),
			MaxUploadBytes: 512 << 20,
		},
		Provider: ProviderConfig{
			WhisperModel:   "whisper-1",
			ChatModel:      "gpt-4o-mini",
			Language:       "pt",
			RequestTimeout: 5 * time.Minute,
		},
		Audio: AudioConfig{
			ChunkSeconds: 600,
			SampleRate:   16000,
			Bitrate:      "64k",
			TempDir:      filepath.Join(os.TempDir(), "bardai"),
		},
		Credits: CreditsConfig{
			FreeTrialMaxBytes: 10 << 20,
		},
		Watch: WatchConfig{
			Patterns:      []string{"*.mp3", "*.wav", "*.mp4", "*.m4a"},
			StabilityWait: 2 * time.Second,
			UserID:        "inbox",
		},
		Logging: *logger.DefaultConfig(),
	}
}
