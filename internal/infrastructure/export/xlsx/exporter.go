package xlsx

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

const SheetName = "Meetings"

var header = []any{
	"ID", "Title", "Status", "Scheduled Date", "Scheduled Time", "Participants",
	"Word Count", "Duration (s)", "Created At", "Updated At", "Executive Summary", "Action Items",
}

// Exporter writes meetings into a single-sheet workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, w io.Writer, meetings []domain.Meeting) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := styleHeader(f); err != nil {
		return err
	}

	for i, m := range meetings {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.ID, m.Title, string(m.Status), m.ScheduledDate, m.ScheduledTime, participantCount(m),
			m.WordCount, m.DurationSeconds, m.CreatedAt.UTC().Format(time.RFC3339),
			m.UpdatedAt.UTC().Format(time.RFC3339), m.ExecutiveSummary, m.ActionItems,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File) error {
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "B", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "K", "L", 60); err != nil {
		return err
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func participantCount(m domain.Meeting) int {
	if m.ParticipantCount != nil {
		return *m.ParticipantCount
	}
	return len(m.Participants)
}
