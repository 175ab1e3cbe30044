package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeChat returns a canned response or error.
type fakeChat struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func sampleSegments() []Segment {
	return []Segment{
		{Start: 0, End: 5, Text: "Como você começou?"},
		{Start: 5, End: 20, Text: "Comecei em 2010."},
		{Start: 20, End: 25, Text: "E depois?"},
	}
}

func TestAttributeSpeakersAppliesLabels(t *testing.T) {
	chat := &fakeChat{
		response: `{"speakers":[{"index":0,"speaker":"Entrevistador"},{"index":1,"speaker":"Entrevistado 1"},{"index":2,"speaker":"Entrevistador"}]}`,
	}

	got := AttributeSpeakers(context.Background(), chat, sampleSegments())

	want := []string{"Entrevistador", "Entrevistado 1", "Entrevistador"}
	for i, speaker := range want {
		if got[i].Speaker != speaker {
			t.Errorf("segment %d speaker = %q, want %q", i, got[i].Speaker, speaker)
		}
	}
}

func TestAttributeSpeakersPartialLabels(t *testing.T) {
	chat := &fakeChat{
		response: `{"speakers":[{"index":1,"speaker":"Entrevistado 1"}]}`,
	}

	got := AttributeSpeakers(context.Background(), chat, sampleSegments())

	if got[0].Speaker != "" || got[2].Speaker != "" {
		t.Errorf("unlabeled segments must keep prior label, got %q and %q", got[0].Speaker, got[2].Speaker)
	}
	if got[1].Speaker != "Entrevistado 1" {
		t.Errorf("segment 1 speaker = %q, want %q", got[1].Speaker, "Entrevistado 1")
	}
}

func TestAttributeSpeakersDegradesGracefully(t *testing.T) {
	tests := []struct {
		name string
		chat *fakeChat
	}{
		{
			name: "api failure",
			chat: &fakeChat{err: errors.New("rate limited")},
		},
		{
			name: "malformed json",
			chat: &fakeChat{response: "not json at all"},
		},
		{
			name: "valid json wrong shape",
			chat: &fakeChat{response: `{"labels": []}`},
		},
		{
			name: "all indices out of range",
			chat: &fakeChat{response: `{"speakers":[{"index":99,"speaker":"X"},{"index":-1,"speaker":"Y"}]}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sampleSegments()
			got := AttributeSpeakers(context.Background(), tt.chat, input)

			if len(got) != len(input) {
				t.Fatalf("AttributeSpeakers() returned %d segments, want %d", len(got), len(input))
			}
			for i, seg := range got {
				if seg.Speaker != "" {
					t.Errorf("segment %d speaker = %q, want unlabeled", i, seg.Speaker)
				}
				if seg.Text != input[i].Text {
					t.Errorf("segment %d text changed", i)
				}
			}
		})
	}
}

func TestAttributeSpeakersEmptyInput(t *testing.T) {
	chat := &fakeChat{response: `{"speakers":[]}`}

	got := AttributeSpeakers(context.Background(), chat, nil)
	if len(got) != 0 {
		t.Errorf("AttributeSpeakers(nil) = %v, want empty", got)
	}
	if len(chat.prompts) != 0 {
		t.Error("empty input must not call the model")
	}
}

func TestIndexedTranscriptTruncation(t *testing.T) {
	long := strings.Repeat("palavra ", 200)
	segments := make([]Segment, 20)
	for i := range segments {
		segments[i] = Segment{Text: long}
	}

	got := indexedTranscript(segments, maxAttributionChars)
	if len(got) > maxAttributionChars {
		t.Errorf("indexedTranscript() length = %d, exceeds budget %d", len(got), maxAttributionChars)
	}
	if !strings.HasPrefix(got, "[0] ") {
		t.Errorf("indexedTranscript() must start with first indexed line")
	}
}

func TestAttributeSpeakersPromptContainsIndices(t *testing.T) {
	chat := &fakeChat{response: `{"speakers":[{"index":0,"speaker":"Participante"}]}`}

	AttributeSpeakers(context.Background(), chat, sampleSegments())

	if len(chat.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(chat.prompts))
	}
	prompt := chat.prompts[0]
	for _, marker := range []string{"[0] Como você começou?", "[1] Comecei em 2010.", "[2] E depois?"} {
		if !strings.Contains(prompt, marker) {
			t.Errorf("prompt missing %q", marker)
		}
	}
}
