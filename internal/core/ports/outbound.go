package ports

import (
	"context"
	"io"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

// MeetingRepository persists meetings with their participants and tags.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	Update(ctx context.Context, id string, patch domain.MeetingPatch) error
	ReplaceParticipants(ctx context.Context, id string, participants []domain.Participant) error
	ReplaceTags(ctx context.Context, id string, tags []string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Meeting, error)
	Count(ctx context.Context, filter domain.ListFilter) (int, error)
	Search(ctx context.Context, query string) ([]domain.Meeting, error)
}

// ObjectStorage stores files addressed by key.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	Path(key string) string
}

// ArtifactStore keeps JSON copies of processing results keyed by job id.
type ArtifactStore interface {
	SaveResult(ctx context.Context, sessionID string, result domain.ProcessingResult) error
	LoadResult(ctx context.Context, sessionID string) (*domain.ProcessingResult, error)
}

// Transcoder converts arbitrary audio containers to mono 16 kHz PCM WAV.
type Transcoder interface {
	ToPCM(ctx context.Context, srcPath, dstPath string) error
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error)
}

// TextGenerator completes a prompt with the given model; empty model means the default one.
type TextGenerator interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// LLMHealthChecker is the lightweight liveness probe of the LLM service.
type LLMHealthChecker interface {
	Ping(ctx context.Context) error
}

// PromptSet renders the extraction prompts of one template set, in order.
type PromptSet interface {
	Name() string
	Sections() []domain.Section
	Render(section domain.Section, transcript string) (string, error)
}

// EventPublisher announces finished processing jobs.
type EventPublisher interface {
	PublishMeetingProcessed(ctx context.Context, event domain.MeetingProcessedEvent) error
}

// MeetingExporter writes a tabular export of meetings.
type MeetingExporter interface {
	Export(ctx context.Context, w io.Writer, meetings []domain.Meeting) error
}

// JobObserver records processing job metrics.
type JobObserver interface {
	StartJob()
	FinishJob(duration time.Duration, err error)
	ObserveStage(stage string, duration time.Duration)
}
