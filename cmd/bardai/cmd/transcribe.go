package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/betjuliano/Bard-AI/pkg/job"
	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/media"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file]",
	Short: "Transcribe a local audio/video file in one shot",
	Long: `Run the full pipeline on a local file and print the transcript.

Local runs are operator tooling: they bypass admission and are not billed.

Examples:
  bardai transcribe interview.mp3
  bardai transcribe recording.mp4 --premium`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().Bool("premium", false, "use the high-fidelity per-chunk codec")
	transcribeCmd.Flags().String("user", "local", "user to record the job under")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("transcribe")
	inputPath := args[0]

	if !media.IsSupported(inputPath) {
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(inputPath))
	}

	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	quality := media.QualityStandard
	if premium, _ := cmd.Flags().GetBool("premium"); premium {
		quality = media.QualityPremium
	}
	userID, _ := cmd.Flags().GetString("user")

	// The pipeline deletes its input when done, so work on a copy.
	workPath, size, err := copyToTemp(inputPath, a.cfg.Audio.TempDir)
	if err != nil {
		return fmt.Errorf("failed to stage input: %w", err)
	}

	j := &job.Job{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            filepath.Base(inputPath),
		OriginalFilename: filepath.Base(inputPath),
		FileSize:         size,
		Status:           job.StatusPreparing,
		Quality:          quality,
		CreditsSettled:   true, // local runs are not billed
		CreatedAt:        time.Now().UTC(),
	}
	if err := a.store.Save(j); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}

	log.Info().Str("job_id", j.ID).Str("file", inputPath).Msg("Starting local transcription")

	a.pipeline.Run(context.Background(), j, workPath)

	final, err := a.store.Get(j.ID)
	if err != nil {
		return fmt.Errorf("failed to reload job: %w", err)
	}
	if final.Status != job.StatusCompleted {
		return fmt.Errorf("transcription failed: %s", final.ErrorMessage)
	}

	for _, seg := range final.Segments {
		if seg.Speaker != "" {
			fmt.Printf("[%.0fs] %s: %s\n", seg.Start, seg.Speaker, seg.Text)
		} else {
			fmt.Printf("[%.0fs] %s\n", seg.Start, seg.Text)
		}
	}
	fmt.Printf("\n%d words, %d pages, %d chunks\n", final.WordCount, final.PageCount, final.TotalChunks)
	return nil
}

// copyToTemp stages the input file into the temp directory so the pipeline
// can own (and eventually delete) it.
func copyToTemp(inputPath, tempDir string) (string, int64, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", 0, err
	}

	src, err := os.Open(inputPath)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(tempDir, uuid.NewString()+filepath.Ext(inputPath))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", 0, err
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", 0, err
	}
	return dstPath, size, nil
}
