package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the HTTP API server exposing job creation and polling:

  POST /api/jobs      multipart upload (file, title), returns the accepted job
  GET  /api/jobs      list the caller's jobs
  GET  /api/jobs/{id} poll one job's progress

Transcription runs in the background; clients poll while the job status
is "processing".`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr := a.cfg.Server.Addr
	if v := viper.GetString("server.addr"); v != "" {
		addr = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.pipeline, a.store, a.cfg.Server.UploadDir, a.cfg.Server.MaxUploadBytes)

	log.Info().Str("database", a.cfg.Server.DatabasePath).Msg("Starting server")
	return srv.ListenAndServe(ctx, addr)
}
