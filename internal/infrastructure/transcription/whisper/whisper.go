package whisper

import (
	"context"
	"fmt"
	"strings"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

const (
	BackendOpenAI  = "openai"
	BackendCommand = "command"
)

type Options struct {
	Backend  string
	Language string

	// openai backend
	URL    string
	APIKey string
	Model  string
	Probe  bool

	// command backend
	Binary    string
	ModelPath string
}

// Engine is a speech-to-text backend that must be loaded once before use.
type Engine interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error)
}

func New(opts Options) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendOpenAI:
		return NewAPITranscriber(opts), nil
	case BackendCommand:
		return NewCommandTranscriber(opts), nil
	default:
		return nil, fmt.Errorf("unsupported whisper backend %q", opts.Backend)
	}
}
