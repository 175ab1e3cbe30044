// Package watch submits media files dropped into an inbox directory to the
// transcription pipeline.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/pipeline"
)

// Config tunes the inbox watcher.
type Config struct {
	// InboxDir is the directory watched for new media files.
	InboxDir string

	// UserID is the account the ingested jobs are created under.
	UserID string

	// Patterns are glob patterns matched against file names.
	Patterns []string

	// StabilityWait is how long a file's size must stay unchanged before
	// it is considered fully written.
	StabilityWait time.Duration
}

// Watcher watches one inbox directory and feeds the pipeline.
type Watcher struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	watcher  *fsnotify.Watcher

	// recent suppresses the duplicate write events editors and copy
	// tools produce for one file.
	recent   map[string]time.Time
	recentMu sync.Mutex

	wg sync.WaitGroup
}

// New creates an inbox watcher.
func New(cfg Config, p *pipeline.Pipeline) (*Watcher, error) {
	if cfg.InboxDir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}
	if cfg.StabilityWait <= 0 {
		cfg.StabilityWait = 2 * time.Second
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"*.mp3", "*.wav", "*.mp4", "*.m4a"}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		pipeline: p,
		watcher:  fsw,
		recent:   make(map[string]time.Time),
	}, nil
}

// Start watches the inbox until the context is cancelled. Each qualifying
// file is submitted as one job after its size stabilizes.
func (w *Watcher) Start(ctx context.Context) error {
	log := logger.WithComponent("watch")

	if err := os.MkdirAll(w.cfg.InboxDir, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}
	if err := w.watcher.Add(w.cfg.InboxDir); err != nil {
		return fmt.Errorf("failed to watch inbox directory: %w", err)
	}

	log.Info().Str("inbox", w.cfg.InboxDir).Strs("patterns", w.cfg.Patterns).Msg("Watching inbox")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) || !w.markRecent(event.Name) {
				continue
			}
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				w.submit(ctx, path)
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// matches reports whether the file name matches a configured pattern and is
// a supported media format.
func (w *Watcher) matches(path string) bool {
	if !media.IsSupported(path) {
		return false
	}
	base := filepath.Base(path)
	for _, pattern := range w.cfg.Patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// markRecent records the file and reports whether it was not seen in the
// last few seconds.
func (w *Watcher) markRecent(path string) bool {
	w.recentMu.Lock()
	defer w.recentMu.Unlock()

	now := time.Now()
	for p, t := range w.recent {
		if now.Sub(t) > time.Minute {
			delete(w.recent, p)
		}
	}
	if t, seen := w.recent[path]; seen && now.Sub(t) < 10*time.Second {
		return false
	}
	w.recent[path] = now
	return true
}

// submit waits for the file to stabilize and runs it through the pipeline.
// The pipeline owns the file from here and removes it when done.
func (w *Watcher) submit(ctx context.Context, path string) {
	log := logger.WithComponent("watch").WithField("file", filepath.Base(path))

	size, err := w.waitStable(ctx, path)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping unstable or vanished file")
		return
	}

	j, err := w.pipeline.CreateJob(w.cfg.UserID, filepath.Base(path), filepath.Base(path), size, media.QualityStandard)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create job for inbox file")
		return
	}

	log.Info().Str("job_id", j.ID).Int64("size", size).Msg("Inbox file submitted")
	w.pipeline.Run(ctx, j, path)
}

// waitStable polls the file size until it stops changing.
func (w *Watcher) waitStable(ctx context.Context, path string) (int64, error) {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(w.cfg.StabilityWait):
		}

		stat, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		if stat.Size() == lastSize && stat.Size() > 0 {
			return stat.Size(), nil
		}
		lastSize = stat.Size()
	}
}
