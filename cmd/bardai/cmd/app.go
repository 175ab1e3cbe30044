package cmd

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/betjuliano/Bard-AI/pkg/config"
	"github.com/betjuliano/Bard-AI/pkg/credits"
	"github.com/betjuliano/Bard-AI/pkg/job"
	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/pipeline"
	"github.com/betjuliano/Bard-AI/pkg/providers/openai"
)

// app bundles the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	db       *bolt.DB
	store    *job.Store
	ledger   *credits.BoltLedger
	pipeline *pipeline.Pipeline
}

// buildApp loads configuration and wires the store, ledger, media processor,
// provider and pipeline around one shared database handle.
func buildApp(requireAPIKey bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if requireAPIKey && cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("API key is required (set BARDAI_PROVIDER_API_KEY, the config file, or --api-key)")
	}

	db, err := bolt.Open(cfg.Server.DatabasePath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := job.NewStoreWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ledger, err := credits.NewLedgerWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	proc := media.NewFFmpeg(cfg.Audio.TempDir, cfg.Audio.SampleRate, cfg.Audio.Bitrate)

	provider := openai.NewProvider(cfg.Provider.APIKey,
		openai.WithWhisperModel(cfg.Provider.WhisperModel),
		openai.WithChatModel(cfg.Provider.ChatModel),
		openai.WithBaseURL(cfg.Provider.BaseURL),
		openai.WithTimeout(cfg.Provider.RequestTimeout),
	)

	p := pipeline.New(store, ledger, proc, provider, provider, pipeline.Config{
		ChunkSeconds:      cfg.Audio.ChunkSeconds,
		Language:          cfg.Provider.Language,
		FreeTrialMaxBytes: cfg.Credits.FreeTrialMaxBytes,
	})

	return &app{
		cfg:      cfg,
		db:       db,
		store:    store,
		ledger:   ledger,
		pipeline: p,
	}, nil
}

// Close releases the shared database handle.
func (a *app) Close() error {
	return a.db.Close()
}
