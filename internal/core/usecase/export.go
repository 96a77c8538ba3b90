package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
)

type ExportUseCase struct {
	repo     ports.MeetingRepository
	exporter ports.MeetingExporter
}

func NewExportUseCase(repo ports.MeetingRepository, exporter ports.MeetingExporter) *ExportUseCase {
	return &ExportUseCase{repo: repo, exporter: exporter}
}

// ExportMeetings pages through every meeting matching status and writes them
// in one spreadsheet.
func (uc *ExportUseCase) ExportMeetings(ctx context.Context, w io.Writer, status domain.MeetingStatus) error {
	all := make([]domain.Meeting, 0)
	filter := domain.ListFilter{Status: status, Limit: domain.MaxListLimit}
	for {
		page, err := uc.repo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list meetings for export: %w", err)
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += len(page)
	}

	if err := uc.exporter.Export(ctx, w, all); err != nil {
		return fmt.Errorf("export meetings: %w", err)
	}
	return nil
}
