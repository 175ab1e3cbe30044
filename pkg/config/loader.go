package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading and validation.
type Loader struct {
	configPath string
	viper      *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath string) *Loader {
	v := viper.New()

	v.SetEnvPrefix("BARDAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".bardai")
		v.SetConfigType("yaml")
	}

	return &Loader{
		configPath: configPath,
		viper:      v,
	}
}

// Load reads and returns the configuration.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	if err := l.viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	def := DefaultConfig()

	l.viper.SetDefault("server.addr", def.Server.Addr)
	l.viper.SetDefault("server.database_path", def.Server.DatabasePath)
	l.viper.SetDefault("server.upload_dir", def.Server.UploadDir)
	l.viper.SetDefault("server.max_upload_bytes", def.Server.MaxUploadBytes)

	l.viper.SetDefault("provider.whisper_model", def.Provider.WhisperModel)
	l.viper.SetDefault("provider.chat_model", def.Provider.ChatModel)
	l.viper.SetDefault("provider.language", def.Provider.Language)
	l.viper.SetDefault("provider.request_timeout", def.Provider.RequestTimeout)

	l.viper.SetDefault("audio.chunk_seconds", def.Audio.ChunkSeconds)
	l.viper.SetDefault("audio.sample_rate", def.Audio.SampleRate)
	l.viper.SetDefault("audio.bitrate", def.Audio.Bitrate)
	l.viper.SetDefault("audio.temp_dir", def.Audio.TempDir)

	l.viper.SetDefault("credits.free_trial_max_bytes", def.Credits.FreeTrialMaxBytes)

	l.viper.SetDefault("watch.patterns", def.Watch.Patterns)
	l.viper.SetDefault("watch.stability_wait", def.Watch.StabilityWait)
	l.viper.SetDefault("watch.user_id", def.Watch.UserID)

	l.viper.SetDefault("logging.level", def.Logging.Level)
	l.viper.SetDefault("logging.format", def.Logging.Format)
	l.viper.SetDefault("logging.output", def.Logging.Output)
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Audio.ChunkSeconds <= 0 {
		return fmt.Errorf("audio.chunk_seconds must be positive")
	}
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if cfg.Credits.FreeTrialMaxBytes < 0 {
		return fmt.Errorf("credits.free_trial_max_bytes cannot be negative")
	}
	if cfg.Provider.WhisperModel == "" {
		return fmt.Errorf("provider.whisper_model is required")
	}
	return nil
}
