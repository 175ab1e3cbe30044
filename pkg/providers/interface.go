// Package providers defines the external API surfaces the pipeline consumes.
package providers

import "context"

// SegmentResult is a timestamped span of transcribed speech, relative to the
// submitted audio file.
type SegmentResult struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the outcome of transcribing one audio file.
type TranscriptionResult struct {
	Text     string          `json:"text"`
	Segments []SegmentResult `json:"segments,omitempty"`
	Language string          `json:"language,omitempty"`
}

// SpeechToText transcribes a single audio file with segment-level timestamps.
type SpeechToText interface {
	// Name returns the provider name.
	Name() string

	// TranscribeFile sends one audio file to the speech API. The file must
	// respect the provider's per-request size limit.
	TranscribeFile(ctx context.Context, path, language string) (*TranscriptionResult, error)
}

// ChatCompleter answers a single prompt with a text completion. Used for
// speaker attribution.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
