package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeFastPath(t *testing.T) {
	dir := t.TempDir()
	proc := NewFFmpeg(dir, 16000, "64k")

	input := filepath.Join(dir, "small.mp3")
	if err := os.WriteFile(input, []byte("fake mp3 data"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := proc.Normalize(input, QualityStandard)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != input {
		t.Errorf("Normalize() = %q, want unchanged input %q", got, input)
	}
}

func TestNormalizeMissingInput(t *testing.T) {
	proc := NewFFmpeg(t.TempDir(), 16000, "64k")

	if _, err := proc.Normalize("/nonexistent/audio.mp3", QualityStandard); err == nil {
		t.Error("Normalize() on missing file should fail")
	}
}

func TestNewFFmpegDefaults(t *testing.T) {
	proc := NewFFmpeg("", 0, "")

	if proc.tempDir != os.TempDir() {
		t.Errorf("tempDir = %q, want %q", proc.tempDir, os.TempDir())
	}
	if proc.sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", proc.sampleRate)
	}
	if proc.bitrate != "64k" {
		t.Errorf("bitrate = %q, want %q", proc.bitrate, "64k")
	}
}

func TestCleanupChunks(t *testing.T) {
	dir := t.TempDir()
	chunkDir := filepath.Join(dir, "chunks")
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		t.Fatalf("Failed to create chunk dir: %v", err)
	}

	chunks := []Chunk{
		{Index: 0, Path: filepath.Join(chunkDir, "chunk_000.mp3")},
		{Index: 1, Path: filepath.Join(chunkDir, "chunk_001.mp3")},
	}
	for _, chunk := range chunks {
		if err := os.WriteFile(chunk.Path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to create chunk file: %v", err)
		}
	}

	CleanupChunks(chunks)

	for _, chunk := range chunks {
		if _, err := os.Stat(chunk.Path); !os.IsNotExist(err) {
			t.Errorf("Chunk file should be removed: %s", chunk.Path)
		}
	}
	if _, err := os.Stat(chunkDir); !os.IsNotExist(err) {
		t.Errorf("Empty chunk directory should be removed")
	}
}
