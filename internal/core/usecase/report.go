package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
)

const reportRule = "==============================================="

type ReportUseCase struct {
	repo      ports.MeetingRepository
	artifacts ports.ArtifactStore
}

// NewReportUseCase wires report rendering. artifacts may be nil when legacy
// downloads are disabled.
func NewReportUseCase(repo ports.MeetingRepository, artifacts ports.ArtifactStore) *ReportUseCase {
	return &ReportUseCase{repo: repo, artifacts: artifacts}
}

func (uc *ReportUseCase) MeetingReport(ctx context.Context, meetingID string, format domain.ReportFormat) (*domain.Report, error) {
	meeting, err := uc.repo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("fetch meeting by id: %w", err)
	}
	if !meeting.Processed() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "meeting report", errors.New("Meeting has not been processed yet"))
	}
	return renderReport(meeting.ID, domain.ResultFromMeeting(meeting), format)
}

func (uc *ReportUseCase) SessionReport(ctx context.Context, sessionID string, format domain.ReportFormat) (*domain.Report, error) {
	if uc.artifacts == nil {
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "session report", errors.New("Meeting notes not found"))
	}
	res, err := uc.artifacts.LoadResult(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session result: %w", err)
	}
	return renderReport(sessionID, *res, format)
}

func renderReport(id string, res domain.ProcessingResult, format domain.ReportFormat) (*domain.Report, error) {
	switch format {
	case domain.ReportFormatJSON:
		body, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return &domain.Report{
			Filename:    "meeting_notes_" + id + ".json",
			ContentType: "application/json",
			Body:        body,
		}, nil
	case domain.ReportFormatText:
		return &domain.Report{
			Filename:    "meeting_notes_" + id + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(RenderTextReport(res)),
		}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "render report", errors.New("Unsupported format. Use 'txt' or 'json'"))
	}
}

// RenderTextReport lays out a processing result as a plain text document.
func RenderTextReport(res domain.ProcessingResult) string {
	depth := res.AnalysisDepth
	if depth == "" {
		depth = "standard"
	}

	var b strings.Builder
	b.WriteString("PROFESSIONAL MEETING NOTES\n")
	if res.MeetingTitle != "" {
		fmt.Fprintf(&b, "Meeting: %s\n", res.MeetingTitle)
	}
	fmt.Fprintf(&b, "Generated: %s\n", res.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Word Count: %d words\n", res.WordCount)
	fmt.Fprintf(&b, "Analysis Depth: %s\n", depth)

	writeReportSection(&b, "EXECUTIVE SUMMARY", res.ExecutiveSummary)
	if res.DiscussionNotes != "" {
		writeReportSection(&b, "DETAILED DISCUSSION NOTES", res.DiscussionNotes)
	}
	writeReportSection(&b, "ACTION ITEMS & COMMITMENTS", res.ActionItems)
	writeReportSection(&b, "MEETING STRUCTURE & OUTLINE", res.MeetingOutline)
	writeReportSection(&b, "FULL TRANSCRIPT", res.Transcript)

	fmt.Fprintf(&b, "\n%s\nGenerated by Local Meeting Notes AI\n%s\n", reportRule, reportRule)
	return b.String()
}

func writeReportSection(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "\n%s\n%s\n%s\n%s\n", reportRule, title, reportRule, body)
}
