package domain

import (
	"io"
	"time"
)

// Section names a generated artifact of a processing job.
type Section string

const (
	SectionExecutiveSummary Section = "executive_summary"
	SectionDiscussionNotes  Section = "discussion_notes"
	SectionActionItems      Section = "action_items"
	SectionMeetingOutline   Section = "meeting_outline"
)

func (s Section) Valid() bool {
	switch s {
	case SectionExecutiveSummary, SectionDiscussionNotes, SectionActionItems, SectionMeetingOutline:
		return true
	default:
		return false
	}
}

// ProcessRequest is one uploaded file to run through the pipeline.
// MeetingID is empty for the legacy meeting-less path.
type ProcessRequest struct {
	MeetingID string
	Filename  string
	Body      io.Reader
}

type Transcription struct {
	Text     string
	Duration time.Duration
}

const AnalysisDepthConciseFactual = "concise_factual"

type ProcessingResult struct {
	Transcript       string    `json:"transcript"`
	ExecutiveSummary string    `json:"executive_summary"`
	DiscussionNotes  string    `json:"discussion_notes,omitempty"`
	ActionItems      string    `json:"action_items"`
	MeetingOutline   string    `json:"meeting_outline"`
	GeneratedAt      time.Time `json:"generated_at"`
	WordCount        int       `json:"word_count"`
	AnalysisDepth    string    `json:"analysis_depth"`
	SessionID        string    `json:"session_id,omitempty"`
	MeetingID        string    `json:"meeting_id,omitempty"`
	MeetingTitle     string    `json:"meeting_title,omitempty"`
}

// SetSection stores generated text into the matching field.
func (r *ProcessingResult) SetSection(section Section, text string) {
	switch section {
	case SectionExecutiveSummary:
		r.ExecutiveSummary = text
	case SectionDiscussionNotes:
		r.DiscussionNotes = text
	case SectionActionItems:
		r.ActionItems = text
	case SectionMeetingOutline:
		r.MeetingOutline = text
	}
}

// ResultFromMeeting rebuilds a processing result from a stored meeting.
func ResultFromMeeting(m *Meeting) ProcessingResult {
	return ProcessingResult{
		Transcript:       m.Transcript,
		ExecutiveSummary: m.ExecutiveSummary,
		DiscussionNotes:  m.DiscussionNotes,
		ActionItems:      m.ActionItems,
		MeetingOutline:   m.MeetingOutline,
		GeneratedAt:      m.UpdatedAt,
		WordCount:        m.WordCount,
		AnalysisDepth:    AnalysisDepthConciseFactual,
		MeetingID:        m.ID,
		MeetingTitle:     m.Title,
	}
}

type MeetingProcessedEvent struct {
	MeetingID   string        `json:"meeting_id,omitempty"`
	SessionID   string        `json:"session_id"`
	Status      MeetingStatus `json:"status"`
	WordCount   int           `json:"word_count"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type HealthStatus struct {
	Status          string    `json:"status"`
	WhisperLoaded   bool      `json:"whisper_loaded"`
	OllamaConnected bool      `json:"ollama_connected"`
	Timestamp       time.Time `json:"timestamp"`
}
