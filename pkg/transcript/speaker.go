package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/betjuliano/Bard-AI/pkg/logger"
	"github.com/betjuliano/Bard-AI/pkg/providers"
)

// maxAttributionChars bounds the indexed transcript sent to the language
// model so it stays within context limits.
const maxAttributionChars = 8000

const attributionPrompt = `Você receberá a transcrição de uma entrevista, dividida em trechos numerados no formato "[i] texto". Identifique quem fala em cada trecho: use "Entrevistador" para quem faz as perguntas e "Entrevistado 1", "Entrevistado 2", etc. para cada respondente distinto. Se não for possível distinguir os falantes, use "Participante". Responda somente com um objeto JSON no formato {"speakers": [{"index": 0, "speaker": "Entrevistador"}, ...]}.

Transcrição:
`

// attributionResponse is the strict JSON shape expected from the model.
type attributionResponse struct {
	Speakers []struct {
		Index   int    `json:"index"`
		Speaker string `json:"speaker"`
	} `json:"speakers"`
}

// AttributeSpeakers asks a language model to label each segment with a
// speaker role and applies the labels by index. Best effort: on any failure
// (API error, malformed output) it returns the input unchanged.
func AttributeSpeakers(ctx context.Context, chat providers.ChatCompleter, segments []Segment) []Segment {
	log := logger.WithComponent("speaker-attributor")

	if len(segments) == 0 {
		return segments
	}

	prompt := attributionPrompt + indexedTranscript(segments, maxAttributionChars)

	raw, err := chat.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Speaker attribution call failed, keeping segments unlabeled")
		return segments
	}

	labeled, err := applyLabels(segments, raw)
	if err != nil {
		log.Warn().Err(err).Msg("Speaker attribution output unusable, keeping segments unlabeled")
		return segments
	}

	return labeled
}

// indexedTranscript renders segments as "[i] text" lines, truncated to the
// given character budget at a line boundary.
func indexedTranscript(segments []Segment, budget int) string {
	var sb strings.Builder
	for i, seg := range segments {
		line := fmt.Sprintf("[%d] %s\n", i, seg.Text)
		if sb.Len()+len(line) > budget {
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// applyLabels parses the model response and writes labels onto a copy of the
// segment list. Segments the model did not mention keep their prior label.
func applyLabels(segments []Segment, raw string) ([]Segment, error) {
	var resp attributionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("malformed attribution response: %w", err)
	}

	out := make([]Segment, len(segments))
	copy(out, segments)

	applied := 0
	for _, entry := range resp.Speakers {
		if entry.Index < 0 || entry.Index >= len(out) || entry.Speaker == "" {
			continue
		}
		out[entry.Index].Speaker = entry.Speaker
		applied++
	}

	if applied == 0 {
		return nil, fmt.Errorf("attribution response labeled no segments")
	}
	return out, nil
}
