// Package media wraps the external ffmpeg/ffprobe tooling used to probe,
// normalize and split uploaded audio/video before transcription.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Quality selects the per-chunk codec path.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityPremium  Quality = "premium"
)

// MaxAPIFileBytes is the hard per-request size limit of the transcription API.
const MaxAPIFileBytes int64 = 25 << 20

// Chunk is one time-bounded slice of the normalized audio file.
type Chunk struct {
	Index int
	Path  string

	// StartOffset is the chunk's start position in the original timeline,
	// in seconds.
	StartOffset float64
}

// Processor is the narrow media-tool interface the pipeline depends on.
type Processor interface {
	// ProbeDuration returns the media duration in seconds, or 0 when the
	// file cannot be probed.
	ProbeDuration(path string) float64

	// Normalize produces an audio file the transcription API accepts,
	// returning the input path unchanged when it already qualifies.
	Normalize(inputPath string, quality Quality) (string, error)

	// Split cuts the normalized file into chunks of at most
	// maxChunkSeconds, tagged with their start offsets.
	Split(inputPath string, maxChunkSeconds int, quality Quality) ([]Chunk, error)
}

// supportedExtensions lists the upload containers the pipeline accepts.
var supportedExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".flac": true, ".ogg": true,
	".mpga": true, ".mpeg": true, ".webm": true,
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
}

// IsSupported reports whether the file extension is an accepted upload
// format.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// PlanOffsets computes the chunk start offsets for a file of the given
// duration. A duration at or below the chunk size yields a single offset 0;
// an unknown (zero) duration is treated the same way.
func PlanOffsets(durationSeconds float64, chunkSeconds int) []float64 {
	if chunkSeconds <= 0 {
		return []float64{0}
	}
	size := float64(chunkSeconds)
	if durationSeconds <= size {
		return []float64{0}
	}

	var offsets []float64
	for start := 0.0; start < durationSeconds; start += size {
		offsets = append(offsets, start)
	}
	return offsets
}

// formatSeconds renders a second offset for ffmpeg's -ss/-t arguments.
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
