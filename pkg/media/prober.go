package media

import (
	"encoding/json"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/betjuliano/Bard-AI/pkg/logger"
)

// ProbeDuration inspects a media file with ffprobe and returns its duration
// in seconds. Any failure (missing file, corrupt container, tool error)
// yields 0: callers treat 0 as "unknown" and fall back to single-chunk
// processing.
func (f *FFmpeg) ProbeDuration(path string) float64 {
	log := logger.WithComponent("media-prober").WithField("file", path)

	info, err := ffmpeg.Probe(path)
	if err != nil {
		log.Warn().Err(err).Msg("Probe failed, treating duration as unknown")
		return 0
	}

	duration, err := parseProbeDuration(info)
	if err != nil {
		log.Warn().Err(err).Msg("Could not parse probe output")
		return 0
	}

	log.Debug().Float64("duration_seconds", duration).Msg("Probed media duration")
	return duration
}

// parseProbeDuration extracts format.duration from ffprobe JSON output.
func parseProbeDuration(probeData string) (float64, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal([]byte(probeData), &probe); err != nil {
		return 0, err
	}
	if probe.Format.Duration == "" {
		return 0, nil
	}
	return strconv.ParseFloat(probe.Format.Duration, 64)
}
