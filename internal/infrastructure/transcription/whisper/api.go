package whisper

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

// APITranscriber calls an OpenAI-compatible transcription endpoint, such as a
// local faster-whisper or whisper.cpp server.
type APITranscriber struct {
	client   *openai.Client
	model    string
	language string
	probe    bool
}

func NewAPITranscriber(opts Options) *APITranscriber {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = "local"
	}
	config := openai.DefaultConfig(apiKey)
	if opts.URL != "" {
		config.BaseURL = opts.URL
	}
	model := opts.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &APITranscriber{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		language: opts.Language,
		probe:    opts.Probe,
	}
}

// Load verifies the server answers when probing is enabled.
func (t *APITranscriber) Load(ctx context.Context) error {
	if !t.probe {
		return nil
	}
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("probe whisper server: %w", err)
	}
	return nil
}

func (t *APITranscriber) Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Language: t.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper transcription: %w", err)
	}
	return domain.Transcription{
		Text:     resp.Text,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}, nil
}
