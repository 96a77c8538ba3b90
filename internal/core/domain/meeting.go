package domain

import (
	"strings"
	"time"
)

type MeetingStatus string

const (
	StatusPlanned    MeetingStatus = "planned"
	StatusInProgress MeetingStatus = "in-progress"
	StatusCompleted  MeetingStatus = "completed"
	StatusCancelled  MeetingStatus = "cancelled"
)

type Meeting struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Agenda           string        `json:"agenda"`
	ScheduledDate    string        `json:"scheduled_date"`
	ScheduledTime    string        `json:"scheduled_time"`
	Status           MeetingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	AudioFilePath    string        `json:"audio_file_path,omitempty"`
	Transcript       string        `json:"transcript,omitempty"`
	ExecutiveSummary string        `json:"executive_summary,omitempty"`
	DiscussionNotes  string        `json:"discussion_notes,omitempty"`
	ActionItems      string        `json:"action_items,omitempty"`
	MeetingOutline   string        `json:"meeting_outline,omitempty"`
	WordCount        int           `json:"word_count"`
	DurationSeconds  int           `json:"duration_seconds"`

	Participants     []Participant `json:"participants,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	ParticipantCount *int          `json:"participant_count,omitempty"`
}

// Processed reports whether a transcript has been stored for the meeting.
func (m *Meeting) Processed() bool {
	return strings.TrimSpace(m.Transcript) != ""
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// KeepParticipants drops entries without a name.
func KeepParticipants(in []Participant) []Participant {
	out := make([]Participant, 0, len(in))
	for _, p := range in {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type ListFilter struct {
	Status MeetingStatus
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func (f ListFilter) Normalize() ListFilter {
	out := f
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

type NewMeeting struct {
	Title         string        `json:"title"`
	Agenda        string        `json:"agenda"`
	ScheduledDate string        `json:"scheduled_date"`
	ScheduledTime string        `json:"scheduled_time"`
	Participants  []Participant `json:"participants"`
	Tags          []string      `json:"tags"`
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
