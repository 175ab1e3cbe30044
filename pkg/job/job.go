// Package job defines the persisted transcription job model and its store.
package job

import (
	"time"

	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/transcript"
)

// Status is the lifecycle stage of a transcription job.
type Status string

const (
	// StatusPending is part of the client-facing status vocabulary.
	// Current submission paths create jobs directly in StatusPreparing
	// and never emit it.
	StatusPending    Status = "pending"
	StatusPreparing  Status = "preparing"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ChunkStatus is the lifecycle stage of one chunk within a job. Transitions
// are monotonic: pending -> processing -> (completed | error).
type ChunkStatus string

const (
	ChunkPending    ChunkStatus = "pending"
	ChunkProcessing ChunkStatus = "processing"
	ChunkCompleted  ChunkStatus = "completed"
	ChunkError      ChunkStatus = "error"
)

// ChunkProgress is the transient state of one chunk, owned entirely by its
// job and persisted with it so clients can observe chunk-by-chunk progress.
type ChunkProgress struct {
	Index       int                  `json:"index"`
	TotalChunks int                  `json:"totalChunks"`
	Status      ChunkStatus          `json:"status"`
	Text        string               `json:"text,omitempty"`
	Segments    []transcript.Segment `json:"segments,omitempty"`
	StartOffset float64              `json:"startOffset"`
	Error       string               `json:"error,omitempty"`
}

// Job is one user-submitted audio upload and everything the client needs to
// render its progress and final transcript.
type Job struct {
	ID               string               `json:"id"`
	UserID           string               `json:"userId"`
	Title            string               `json:"title"`
	OriginalFilename string               `json:"originalFilename"`
	FileSize         int64                `json:"fileSize"`
	DurationSeconds  float64              `json:"durationSeconds"`
	Transcription    string               `json:"transcriptionText,omitempty"`
	Segments         []transcript.Segment `json:"segments,omitempty"`
	WordCount        int                  `json:"wordCount"`
	PageCount        int                  `json:"pageCount"`
	Status           Status               `json:"status"`
	Quality          media.Quality        `json:"quality"`
	TotalChunks      int                  `json:"totalChunks"`
	CompletedChunks  int                  `json:"completedChunks"`
	ChunkProgress    []ChunkProgress      `json:"chunkProgress,omitempty"`
	ErrorMessage     string               `json:"errorMessage,omitempty"`

	// FreeTrial marks the job as consuming the user's one-time allowance
	// instead of credits.
	FreeTrial bool `json:"freeTrial"`

	// CreditsSettled guards settlement so re-running it cannot
	// double-charge.
	CreditsSettled bool `json:"creditsSettled"`

	// SettlementError records a failed post-completion charge so the
	// outstanding amount can be reconciled. Cleared once settlement
	// succeeds.
	SettlementError string `json:"settlementError,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// InitChunks seeds one pending ChunkProgress entry per planned chunk. Called
// once, before any chunk work starts, so polling clients see deterministic
// totals.
func (j *Job) InitChunks(chunks []media.Chunk) {
	j.TotalChunks = len(chunks)
	j.CompletedChunks = 0
	j.ChunkProgress = make([]ChunkProgress, len(chunks))
	for i, chunk := range chunks {
		j.ChunkProgress[i] = ChunkProgress{
			Index:       i,
			TotalChunks: len(chunks),
			Status:      ChunkPending,
			StartOffset: chunk.StartOffset,
		}
	}
}

// RecountCompleted recomputes CompletedChunks from chunk states.
func (j *Job) RecountCompleted() {
	count := 0
	for _, cp := range j.ChunkProgress {
		if cp.Status == ChunkCompleted {
			count++
		}
	}
	j.CompletedChunks = count
}
