package job

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/betjuliano/Bard-AI/pkg/media"
	"github.com/betjuliano/Bard-AI/pkg/transcript"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	j := &Job{
		ID:               "job-1",
		UserID:           "user-1",
		Title:            "Entrevista 01",
		OriginalFilename: "entrevista.mp3",
		FileSize:         1024,
		Status:           StatusProcessing,
		Quality:          media.QualityStandard,
		TotalChunks:      3,
		CompletedChunks:  1,
		ChunkProgress: []ChunkProgress{
			{Index: 0, TotalChunks: 3, Status: ChunkCompleted, Text: "olá", StartOffset: 0,
				Segments: []transcript.Segment{{Start: 0, End: 2, Text: "olá"}}},
			{Index: 1, TotalChunks: 3, Status: ChunkProcessing, StartOffset: 600},
			{Index: 2, TotalChunks: 3, Status: ChunkPending, StartOffset: 1200},
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := store.Save(j); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if got.Title != j.Title || got.Status != j.Status {
		t.Errorf("Get() = %+v, want %+v", got, j)
	}
	if len(got.ChunkProgress) != 3 {
		t.Fatalf("ChunkProgress count = %d, want 3", len(got.ChunkProgress))
	}
	if got.ChunkProgress[1].StartOffset != 600 {
		t.Errorf("chunk 1 offset = %v, want 600", got.ChunkProgress[1].StartOffset)
	}
	if got.ChunkProgress[0].Segments[0].Text != "olá" {
		t.Errorf("chunk 0 segment text = %q, want %q", got.ChunkProgress[0].Segments[0].Text, "olá")
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	j := &Job{ID: "job-1", Status: StatusPreparing, CreatedAt: time.Now().UTC()}
	if err := store.Save(j); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	j.Status = StatusCompleted
	j.CompletedChunks = 2
	if err := store.Save(j); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != StatusCompleted || got.CompletedChunks != 2 {
		t.Errorf("Get() after overwrite = %+v", got)
	}
}

func TestStoreListByUser(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().UTC()
	jobs := []*Job{
		{ID: "a", UserID: "alice", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "b", UserID: "bob", CreatedAt: base.Add(-1 * time.Hour)},
		{ID: "c", UserID: "alice", CreatedAt: base},
	}
	for _, j := range jobs {
		if err := store.Save(j); err != nil {
			t.Fatalf("Save(%s) failed: %v", j.ID, err)
		}
	}

	got, err := store.ListByUser("alice")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByUser() returned %d jobs, want 2", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("ListByUser() order = [%s, %s], want newest first [c, a]", got[0].ID, got[1].ID)
	}
}

func TestInitChunks(t *testing.T) {
	j := &Job{ID: "x"}
	chunks := []media.Chunk{
		{Index: 0, Path: "/tmp/c0.mp3", StartOffset: 0},
		{Index: 1, Path: "/tmp/c1.mp3", StartOffset: 600},
		{Index: 2, Path: "/tmp/c2.mp3", StartOffset: 1200},
	}

	j.InitChunks(chunks)

	if j.TotalChunks != 3 || j.CompletedChunks != 0 {
		t.Errorf("totals = %d/%d, want 0/3", j.CompletedChunks, j.TotalChunks)
	}
	for i, cp := range j.ChunkProgress {
		if cp.Status != ChunkPending {
			t.Errorf("chunk %d status = %s, want pending", i, cp.Status)
		}
		if cp.Index != i || cp.TotalChunks != 3 {
			t.Errorf("chunk %d identity = (%d, %d), want (%d, 3)", i, cp.Index, cp.TotalChunks, i)
		}
		if cp.StartOffset != chunks[i].StartOffset {
			t.Errorf("chunk %d offset = %v, want %v", i, cp.StartOffset, chunks[i].StartOffset)
		}
	}
}

func TestRecountCompleted(t *testing.T) {
	j := &Job{
		ChunkProgress: []ChunkProgress{
			{Status: ChunkCompleted},
			{Status: ChunkError},
			{Status: ChunkCompleted},
			{Status: ChunkPending},
		},
	}

	j.RecountCompleted()
	if j.CompletedChunks != 2 {
		t.Errorf("CompletedChunks = %d, want 2", j.CompletedChunks)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusPreparing, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusError, true},
	}

	for _, tt := range tests {
		j := &Job{Status: tt.status}
		if got := j.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
