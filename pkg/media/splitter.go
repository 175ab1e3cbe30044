package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/betjuliano/Bard-AI/pkg/logger"
)

// Split cuts a normalized audio file into chunks of at most maxChunkSeconds.
// Files at or below the limit (or with unknown duration) are returned as a
// single chunk pointing at the input itself, with no I/O. Premium quality
// re-encodes each chunk to FLAC; standard quality stream-copies the already
// compressed audio into chunks of the same container.
func (f *FFmpeg) Split(inputPath string, maxChunkSeconds int, quality Quality) ([]Chunk, error) {
	log := logger.WithComponent("media-splitter").WithField("file", filepath.Base(inputPath))

	duration := f.ProbeDuration(inputPath)
	offsets := PlanOffsets(duration, maxChunkSeconds)

	if len(offsets) == 1 {
		log.Debug().Float64("duration_seconds", duration).Msg("File fits in one chunk, no split")
		return []Chunk{{Index: 0, Path: inputPath, StartOffset: 0}}, nil
	}

	chunkDir := filepath.Join(f.tempDir, fmt.Sprintf("chunks_%d", time.Now().UnixNano()))
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	ext := chunkExt(inputPath, quality)

	log.Info().
		Int("chunk_count", len(offsets)).
		Int("chunk_seconds", maxChunkSeconds).
		Str("quality", string(quality)).
		Msg("Splitting into chunks")

	chunks := make([]Chunk, 0, len(offsets))
	for i, offset := range offsets {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("chunk_%03d%s", i, ext))

		if err := f.extractChunk(inputPath, chunkPath, offset, maxChunkSeconds, quality); err != nil {
			CleanupChunks(chunks)
			return nil, fmt.Errorf("failed to create chunk %d: %w", i, err)
		}

		chunks = append(chunks, Chunk{
			Index:       i,
			Path:        chunkPath,
			StartOffset: offset,
		})
	}

	return chunks, nil
}

// chunkExt picks the chunk file extension. Premium chunks are re-encoded to
// FLAC. Standard chunks are stream copies, so they must keep the input
// container: the input may be an untouched upload (m4a, wav, webm) whose
// codec no other muxer accepts without re-encoding.
func chunkExt(inputPath string, quality Quality) string {
	if quality == QualityPremium {
		return ".flac"
	}
	return strings.ToLower(filepath.Ext(inputPath))
}

// extractChunk runs one ffmpeg invocation producing a single chunk file.
func (f *FFmpeg) extractChunk(inputPath, outputPath string, offset float64, chunkSeconds int, quality Quality) error {
	input := ffmpeg.Input(inputPath, ffmpeg.KwArgs{
		"ss": formatSeconds(offset),
		"t":  fmt.Sprintf("%d", chunkSeconds),
	})

	var out ffmpeg.KwArgs
	if quality == QualityPremium {
		out = ffmpeg.KwArgs{
			"acodec": "flac",
			"ar":     fmt.Sprintf("%d", f.sampleRate),
			"ac":     "1",
		}
	} else {
		// The normalized stream is already compressed, copy without
		// re-encoding.
		out = ffmpeg.KwArgs{"acodec": "copy"}
	}

	err := input.Output(outputPath, out).OverWriteOutput().ErrorToStdOut().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg chunk extraction failed: %w", err)
	}
	return nil
}

// CleanupChunks removes chunk files and their directory, ignoring files that
// are already gone. Chunks whose path is the original input (single-chunk
// fast path) are left alone by callers that still need the source file.
func CleanupChunks(chunks []Chunk) {
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			logger.WithComponent("media-splitter").Warn().
				Err(err).Str("path", chunk.Path).Msg("Failed to remove chunk file")
		}
	}
	if len(chunks) > 0 {
		// Best effort, fails while non-empty.
		_ = os.Remove(filepath.Dir(chunks[0].Path))
	}
}
