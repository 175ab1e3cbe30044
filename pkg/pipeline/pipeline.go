// Package pipeline orchestrates the progressive transcription of one upload:
// probe, normalize, split, per-chunk transcription with persisted progress,
// speaker attribution, compaction and credit settlement.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/betjuliano/Bard-AI/pkg/credits"
	"github.com/betjuliano/Bard-AI/pkg/job"
	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/providers"
	"github.com/betjuliano/Bard-AI/pkg/transcript"
)

// ErrFreeTrialTooLarge is returned when a first-time user's upload exceeds
// the free-trial size ceiling and no paid credits cover it.
var ErrFreeTrialTooLarge = errors.New("file exceeds the free trial size limit")

// ErrInsufficientCredits mirrors the ledger error at admission time.
var ErrInsufficientCredits = credits.ErrInsufficientCredits

// Config tunes the pipeline.
type Config struct {
	// ChunkSeconds is the maximum duration of one chunk.
	ChunkSeconds int

	// Language is the target spoken language passed to the speech API.
	Language string

	// FreeTrialMaxBytes caps the upload size of a free-trial job.
	FreeTrialMaxBytes int64
}

// Pipeline runs transcription jobs. One Pipeline serves all jobs; each job
// runs on its own goroutine, with strictly sequential chunk processing
// inside a job.
type Pipeline struct {
	store  *job.Store
	ledger credits.Ledger
	media  media.Processor
	speech providers.SpeechToText
	chat   providers.ChatCompleter
	cfg    Config
}

// New creates a pipeline.
func New(store *job.Store, ledger credits.Ledger, proc media.Processor, speech providers.SpeechToText, chat providers.ChatCompleter, cfg Config) *Pipeline {
	if cfg.ChunkSeconds <= 0 {
		cfg.ChunkSeconds = 600
	}
	if cfg.Language == "" {
		cfg.Language = "pt"
	}
	return &Pipeline{
		store:  store,
		ledger: ledger,
		media:  proc,
		speech: speech,
		chat:   chat,
		cfg:    cfg,
	}
}

// Admit decides whether a user may submit an upload of the given size,
// before any processing starts. It returns whether the job rides the
// one-time free trial.
func (p *Pipeline) Admit(userID string, fileSize int64) (freeTrial bool, err error) {
	trialUsed, err := p.ledger.FreeTrialUsed(userID)
	if err != nil {
		return false, fmt.Errorf("failed to check free trial: %w", err)
	}

	balance, err := p.ledger.Balance(userID)
	if err != nil {
		return false, fmt.Errorf("failed to check balance: %w", err)
	}

	if !trialUsed {
		if fileSize <= p.cfg.FreeTrialMaxBytes {
			return true, nil
		}
		if balance >= 1 {
			return false, nil
		}
		return false, ErrFreeTrialTooLarge
	}

	if balance < 1 {
		return false, ErrInsufficientCredits
	}
	return false, nil
}

// CreateJob admits the upload, creates the job record in preparing state and
// persists it. The caller then starts Run on a background goroutine.
func (p *Pipeline) CreateJob(userID, title, filename string, fileSize int64, quality media.Quality) (*job.Job, error) {
	freeTrial, err := p.Admit(userID, fileSize)
	if err != nil {
		return nil, err
	}

	j := &job.Job{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            title,
		OriginalFilename: filename,
		FileSize:         fileSize,
		Status:           job.StatusPreparing,
		Quality:          quality,
		FreeTrial:        freeTrial,
		CreatedAt:        time.Now().UTC(),
	}

	if err := p.store.Save(j); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	return j, nil
}

// Run executes the whole pipeline for one job. It never returns an error:
// every failure is recorded on the job itself. Temporary files are removed
// on success and failure alike.
func (p *Pipeline) Run(ctx context.Context, j *job.Job, uploadPath string) {
	log := logger.WithComponent("pipeline").WithField("job_id", j.ID)

	var normalized string
	var chunks []media.Chunk
	defer func() {
		p.cleanup(uploadPath, normalized, chunks)
	}()

	if err := p.process(ctx, j, uploadPath, &normalized, &chunks); err != nil {
		log.Error().Err(err).Msg("Transcription job failed")
		j.Status = job.StatusError
		j.ErrorMessage = err.Error()
		if saveErr := p.store.Save(j); saveErr != nil {
			log.Error().Err(saveErr).Msg("Failed to persist job failure")
		}
		return
	}

	log.Info().
		Int("total_chunks", j.TotalChunks).
		Int("word_count", j.WordCount).
		Int("page_count", j.PageCount).
		Msg("Transcription job completed")
}

// process runs every stage; the first fatal error aborts the job.
func (p *Pipeline) process(ctx context.Context, j *job.Job, uploadPath string, normalized *string, chunks *[]media.Chunk) error {
	log := logger.WithComponent("pipeline").WithField("job_id", j.ID)

	j.Status = job.StatusPreparing
	if err := p.store.Save(j); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}

	j.DurationSeconds = p.media.ProbeDuration(uploadPath)

	norm, err := p.media.Normalize(uploadPath, j.Quality)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}
	*normalized = norm

	split, err := p.media.Split(norm, p.cfg.ChunkSeconds, j.Quality)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}
	*chunks = split

	// All chunk slots become visible to polling clients before any
	// transcription work starts.
	j.InitChunks(split)
	j.Status = job.StatusProcessing
	if err := p.store.Save(j); err != nil {
		return fmt.Errorf("failed to persist chunk plan: %w", err)
	}

	log.Info().Int("total_chunks", j.TotalChunks).Float64("duration_seconds", j.DurationSeconds).Msg("Starting chunk transcription")

	if err := p.transcribeChunks(ctx, j, split); err != nil {
		return err
	}

	p.finalize(ctx, j)

	if err := p.store.Save(j); err != nil {
		return fmt.Errorf("failed to persist completed job: %w", err)
	}

	p.settle(j)
	return nil
}

// transcribeChunks processes chunks strictly in index order, persisting the
// job after every state change. One failed chunk aborts the whole job.
func (p *Pipeline) transcribeChunks(ctx context.Context, j *job.Job, chunks []media.Chunk) error {
	log := logger.WithComponent("pipeline").WithField("job_id", j.ID)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("job cancelled before chunk %d: %w", i, err)
		}

		cp := &j.ChunkProgress[i]
		cp.Status = job.ChunkProcessing
		if err := p.store.Save(j); err != nil {
			return fmt.Errorf("failed to persist chunk %d start: %w", i, err)
		}

		log.Debug().Int("chunk", i).Float64("offset", chunk.StartOffset).Msg("Transcribing chunk")

		result, err := p.speech.TranscribeFile(ctx, chunk.Path, p.cfg.Language)
		if err != nil {
			cp.Status = job.ChunkError
			cp.Error = err.Error()
			if saveErr := p.store.Save(j); saveErr != nil {
				log.Error().Err(saveErr).Msg("Failed to persist chunk failure")
			}
			return fmt.Errorf("chunk %d transcription failed: %w", i, err)
		}

		cp.Text = strings.TrimSpace(result.Text)
		cp.Segments = transcript.FromResult(result.Segments, chunk.StartOffset)
		cp.Status = job.ChunkCompleted
		j.RecountCompleted()

		if err := p.store.Save(j); err != nil {
			return fmt.Errorf("failed to persist chunk %d result: %w", i, err)
		}

		log.Info().
			Int("chunk", i).
			Int("completed", j.CompletedChunks).
			Int("total", j.TotalChunks).
			Msg("Chunk transcribed")
	}

	return nil
}

// finalize assembles the transcript from completed chunks, labels speakers
// (best effort) and compacts segments for display.
func (p *Pipeline) finalize(ctx context.Context, j *job.Job) {
	texts := make([]string, 0, len(j.ChunkProgress))
	var segments []transcript.Segment
	for _, cp := range j.ChunkProgress {
		if cp.Text != "" {
			texts = append(texts, cp.Text)
		}
		segments = append(segments, cp.Segments...)
	}

	segments = transcript.AttributeSpeakers(ctx, p.chat, segments)
	segments = transcript.Compact(segments)

	j.Transcription = strings.Join(texts, " ")
	j.Segments = segments
	j.WordCount = transcript.WordCount(j.Transcription)
	j.PageCount = transcript.PageCount(j.WordCount)
	j.Status = job.StatusCompleted
	now := time.Now().UTC()
	j.CompletedAt = &now
}

// settle charges the completed job exactly once: the free-trial flag for a
// first use, otherwise one credit per transcript page.
func (p *Pipeline) settle(j *job.Job) {
	log := logger.WithComponent("pipeline").WithField("job_id", j.ID)

	if j.CreditsSettled {
		return
	}

	var err error
	if j.FreeTrial {
		err = p.ledger.MarkFreeTrialUsed(j.UserID)
	} else {
		err = p.ledger.Deduct(j.UserID, j.PageCount)
	}
	if err != nil {
		// The transcript is already delivered; leave the flag clear so
		// settlement can be re-attempted, and record the failure on the
		// job for reconciliation.
		log.Error().Err(err).Str("user_id", j.UserID).Msg("Credit settlement failed")
		j.SettlementError = err.Error()
		if saveErr := p.store.Save(j); saveErr != nil {
			log.Error().Err(saveErr).Msg("Failed to persist settlement failure")
		}
		return
	}

	j.CreditsSettled = true
	j.SettlementError = ""
	if err := p.store.Save(j); err != nil {
		log.Error().Err(err).Msg("Failed to persist settlement")
	}
}

// cleanup removes everything the pipeline created plus the original upload.
// It runs unconditionally, on success and failure paths alike.
func (p *Pipeline) cleanup(uploadPath, normalized string, chunks []media.Chunk) {
	log := logger.WithComponent("pipeline")

	physical := make([]media.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Path != normalized && chunk.Path != uploadPath {
			physical = append(physical, chunk)
		}
	}
	media.CleanupChunks(physical)

	if normalized != "" && normalized != uploadPath {
		if err := os.Remove(normalized); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", normalized).Msg("Failed to remove normalized file")
		}
	}

	if uploadPath != "" {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", uploadPath).Msg("Failed to remove upload")
		}
	}
}
