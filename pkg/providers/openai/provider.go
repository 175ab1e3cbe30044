// Package openai implements the speech-to-text and chat interfaces against
// the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/betjuliano/Bard-AI/pkg/providers"
)

const (
	defaultWhisperModel = "whisper-1"
	defaultChatModel    = "gpt-4o-mini"
)

// Provider implements providers.SpeechToText and providers.ChatCompleter.
type Provider struct {
	client       *goopenai.Client
	apiKey       string
	baseURL      string
	whisperModel string
	chatModel    string
	timeout      time.Duration
}

// ProviderOption customizes the provider.
type ProviderOption func(*Provider)

// WithWhisperModel sets the speech-to-text model.
func WithWhisperModel(model string) ProviderOption {
	return func(p *Provider) { p.whisperModel = model }
}

// WithChatModel sets the model used for speaker attribution.
func WithChatModel(model string) ProviderOption {
	return func(p *Provider) { p.chatModel = model }
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) ProviderOption {
	return func(p *Provider) { p.baseURL = url }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) { p.timeout = d }
}

// NewProvider creates a new OpenAI provider instance.
func NewProvider(apiKey string, options ...ProviderOption) *Provider {
	p := &Provider{
		apiKey:       apiKey,
		whisperModel: defaultWhisperModel,
		chatModel:    defaultChatModel,
		timeout:      5 * time.Minute,
	}

	for _, opt := range options {
		opt(p)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	p.client = goopenai.NewClientWithConfig(cfg)

	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// TranscribeFile sends one audio file to the transcription endpoint,
// requesting segment-level timestamps, and returns the text plus segments
// relative to the submitted file.
func (p *Provider) TranscribeFile(ctx context.Context, path, language string) (*providers.TranscriptionResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.whisperModel,
		FilePath: path,
		Language: language,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []goopenai.TranscriptionTimestampGranularity{
			goopenai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}

	result := &providers.TranscriptionResult{
		Text:     resp.Text,
		Language: resp.Language,
		Segments: make([]providers.SegmentResult, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, providers.SegmentResult{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return result, nil
}

// Complete sends a single prompt to the chat endpoint requesting a JSON
// object response and returns the raw completion text.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}
