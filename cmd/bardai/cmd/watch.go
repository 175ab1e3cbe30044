package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/betjuliano/Bard-AI/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Submit files dropped into an inbox directory",
	Long: `Watch a directory and submit every new media file as a transcription
job. Files are picked up once their size stabilizes and are removed after
processing, like any other upload.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("user", "", "user to create inbox jobs under")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	cfg := watch.Config{
		InboxDir:      a.cfg.Watch.InboxDir,
		UserID:        a.cfg.Watch.UserID,
		Patterns:      a.cfg.Watch.Patterns,
		StabilityWait: a.cfg.Watch.StabilityWait,
	}
	if len(args) == 1 {
		cfg.InboxDir = args[0]
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		cfg.UserID = user
	}

	w, err := watch.New(cfg, a.pipeline)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return w.Start(ctx)
}
