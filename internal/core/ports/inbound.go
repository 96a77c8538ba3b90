package ports

import (
	"context"
	"io"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

// MeetingService is the inbound contract for meeting CRUD and search.
type MeetingService interface {
	Create(ctx context.Context, in domain.NewMeeting) (*domain.Meeting, error)
	Get(ctx context.Context, id string) (*domain.Meeting, error)
	Update(ctx context.Context, id string, patch domain.MeetingPatch) ([]string, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Meeting, int, error)
	Search(ctx context.Context, query string) ([]domain.Meeting, error)
}

// AudioProcessor is the inbound contract for the upload-to-notes pipeline.
type AudioProcessor interface {
	Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessingResult, error)
}

// ReportService renders downloadable meeting notes.
type ReportService interface {
	MeetingReport(ctx context.Context, meetingID string, format domain.ReportFormat) (*domain.Report, error)
	SessionReport(ctx context.Context, sessionID string, format domain.ReportFormat) (*domain.Report, error)
}

// HealthReporter summarises dependency readiness.
type HealthReporter interface {
	Health(ctx context.Context) domain.HealthStatus
}

// SpreadsheetExporter streams a meetings export.
type SpreadsheetExporter interface {
	ExportMeetings(ctx context.Context, w io.Writer, status domain.MeetingStatus) error
}
