package media

import "testing"

func TestChunkExtKeepsInputContainer(t *testing.T) {
	tests := []struct {
		name      string
		inputPath string
		quality   Quality
		want      string
	}{
		{"normalized mp3", "/tmp/talk_norm.mp3", QualityStandard, ".mp3"},
		{"untouched m4a upload", "/tmp/talk.m4a", QualityStandard, ".m4a"},
		{"untouched wav upload", "/tmp/talk.wav", QualityStandard, ".wav"},
		{"untouched webm upload", "/tmp/talk.webm", QualityStandard, ".webm"},
		{"uppercase extension", "/tmp/TALK.M4A", QualityStandard, ".m4a"},
		{"premium always flac", "/tmp/talk.m4a", QualityPremium, ".flac"},
		{"premium from mp3", "/tmp/talk_norm.mp3", QualityPremium, ".flac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chunkExt(tt.inputPath, tt.quality); got != tt.want {
				t.Errorf("chunkExt(%q, %s) = %q, want %q", tt.inputPath, tt.quality, got, tt.want)
			}
		})
	}
}
