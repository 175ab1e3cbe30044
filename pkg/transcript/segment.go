// Package transcript holds the time-aligned segment model and the pure
// transforms applied to it: timeline re-basing, speaker attribution and
// display compaction.
package transcript

import (
	"math"
	"strings"

	"github.com/betjuliano/Bard-AI/pkg/providers"
)

// wordsPerPage is the billing conversion between word count and pages.
const wordsPerPage = 250

// Segment is a timestamped span of speech on the global timeline of the
// original upload.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// FromResult converts provider segments (relative to one chunk file) into
// global-timeline segments by shifting every timestamp by the chunk's start
// offset.
func FromResult(segments []providers.SegmentResult, offset float64) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, Segment{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return out
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// PageCount converts a word count to billed pages. Zero words is zero pages.
func PageCount(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerPage))
}
