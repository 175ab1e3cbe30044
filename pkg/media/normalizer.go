package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/betjuliano/Bard-AI/pkg/logger"
)

// FFmpeg implements Processor on top of the ffmpeg/ffprobe binaries.
type FFmpeg struct {
	tempDir    string
	sampleRate int
	bitrate    string
}

// NewFFmpeg creates an ffmpeg-backed media processor.
func NewFFmpeg(tempDir string, sampleRate int, bitrate string) *FFmpeg {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if bitrate == "" {
		bitrate = "64k"
	}
	return &FFmpeg{
		tempDir:    tempDir,
		sampleRate: sampleRate,
		bitrate:    bitrate,
	}
}

// nativeExtensions are container formats the transcription API accepts
// without re-encoding.
var nativeExtensions = map[string]bool{
	".mp3":  true,
	".mpga": true,
	".mpeg": true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
}

// Normalize transcodes the input into a mono, fixed-rate MP3 stream the
// transcription API accepts. Standard-quality files that are already in a
// natively accepted container and within the API size limit are returned
// unchanged; premium files are always normalized so the splitter works from
// a consistent stream.
func (f *FFmpeg) Normalize(inputPath string, quality Quality) (string, error) {
	log := logger.WithComponent("media-normalizer").WithField("file", filepath.Base(inputPath))

	stat, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("input file not accessible: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if quality != QualityPremium && nativeExtensions[ext] && stat.Size() <= MaxAPIFileBytes {
		log.Debug().Int64("size_bytes", stat.Size()).Msg("Input already API-ready, skipping normalization")
		return inputPath, nil
	}

	if err := os.MkdirAll(f.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), ext)
	outputPath := filepath.Join(f.tempDir, base+"_norm.mp3")

	log.Info().
		Str("output", outputPath).
		Int("sample_rate", f.sampleRate).
		Str("bitrate", f.bitrate).
		Msg("Normalizing media")

	err = ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "libmp3lame",
			"ab":     f.bitrate,
			"ar":     fmt.Sprintf("%d", f.sampleRate),
			"ac":     "1",
		}).
		OverWriteOutput().ErrorToStdOut().Run()
	if err != nil {
		return "", fmt.Errorf("ffmpeg normalization failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("normalized file was not created: %w", err)
	}

	return outputPath, nil
}
