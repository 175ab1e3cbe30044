package transcript

import (
	"math"
	"strings"
)

// bucketSeconds is the merge window for display compaction.
const bucketSeconds = 60

// Compact merges consecutive segments that fall in the same one-minute
// bucket into a single display segment. Text is space-joined, the end time
// extends to the last sub-segment, and the speaker label is cleared when the
// merged sub-segments disagree on who is speaking. The output never has more
// entries than the input and preserves chronological order.
func Compact(segments []Segment) []Segment {
	if len(segments) == 0 {
		return segments
	}

	var out []Segment
	for _, seg := range segments {
		bucket := minuteBucket(seg.Start)
		if len(out) > 0 && minuteBucket(out[len(out)-1].Start) == bucket {
			last := &out[len(out)-1]
			last.Text = joinText(last.Text, seg.Text)
			if seg.End > last.End {
				last.End = seg.End
			}
			if last.Speaker != seg.Speaker {
				// Ambiguous attribution surfaces as no speaker.
				last.Speaker = ""
			}
			continue
		}
		out = append(out, seg)
	}

	return out
}

func minuteBucket(start float64) int {
	return int(math.Floor(start / bucketSeconds))
}

func joinText(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
