package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/betjuliano/Bard-AI/pkg/config"
	"github.com/betjuliano/Bard-AI/pkg/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bardai",
	Short: "Progressive audio transcription service",
	Long: `bardai turns uploaded audio and video recordings into speaker-tagged,
time-aligned transcripts. Long recordings are normalized, split into
bounded chunks and transcribed chunk by chunk, with per-chunk progress
persisted so clients can follow a running job.

Commands:
  serve       run the HTTP API server
  transcribe  transcribe a local file in one shot
  watch       submit files dropped into an inbox directory
  credits     manage user credit balances`,
	Version: "1.0.0",
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bardai.yaml)")
	rootCmd.PersistentFlags().String("api-key", "", "OpenAI API key")
	rootCmd.PersistentFlags().String("database", "", "path to the BoltDB database file")
	rootCmd.PersistentFlags().String("temp-dir", "", "temporary directory for media processing")

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-output", "stderr", "log output (stdout, stderr, file path)")

	_ = viper.BindPFlag("provider.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("server.database_path", rootCmd.PersistentFlags().Lookup("database"))
	_ = viper.BindPFlag("audio.temp_dir", rootCmd.PersistentFlags().Lookup("temp-dir"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.SetEnvPrefix("BARDAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// initConfig initializes logging from flags and environment.
func initConfig() {
	logCfg := logger.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
		Output: viper.GetString("logging.output"),
	}
	if err := logger.Initialize(&logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the full configuration, applying flag overrides bound to
// viper on top of the config file and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("provider.api_key"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := viper.GetString("server.database_path"); v != "" {
		cfg.Server.DatabasePath = v
	}
	if v := viper.GetString("audio.temp_dir"); v != "" {
		cfg.Audio.TempDir = v
	}

	return cfg, nil
}
