package domain

// MeetingPatch is a sparse update. Nil fields are left untouched.
type MeetingPatch struct {
	Title            *string        `json:"title,omitempty"`
	Agenda           *string        `json:"agenda,omitempty"`
	ScheduledDate    *string        `json:"scheduled_date,omitempty"`
	ScheduledTime    *string        `json:"scheduled_time,omitempty"`
	Status           *MeetingStatus `json:"status,omitempty"`
	AudioFilePath    *string        `json:"audio_file_path,omitempty"`
	Transcript       *string        `json:"transcript,omitempty"`
	ExecutiveSummary *string        `json:"executive_summary,omitempty"`
	DiscussionNotes  *string        `json:"discussion_notes,omitempty"`
	ActionItems      *string        `json:"action_items,omitempty"`
	MeetingOutline   *string        `json:"meeting_outline,omitempty"`
	WordCount        *int           `json:"word_count,omitempty"`
	DurationSeconds  *int           `json:"duration_seconds,omitempty"`

	Participants *[]Participant `json:"participants,omitempty"`
	Tags         *[]string      `json:"tags,omitempty"`
}

// PatchColumn is one column assignment derived from a patch.
type PatchColumn struct {
	Name  string
	Value any
}

// Columns returns the meetings-table assignments in a stable order.
// Participants and tags live in their own tables and are not included.
func (p MeetingPatch) Columns() []PatchColumn {
	out := make([]PatchColumn, 0, 13)
	addString := func(name string, v *string) {
		if v != nil {
			out = append(out, PatchColumn{Name: name, Value: *v})
		}
	}
	addInt := func(name string, v *int) {
		if v != nil {
			out = append(out, PatchColumn{Name: name, Value: *v})
		}
	}

	addString("title", p.Title)
	addString("agenda", p.Agenda)
	addString("scheduled_date", p.ScheduledDate)
	addString("scheduled_time", p.ScheduledTime)
	if p.Status != nil {
		out = append(out, PatchColumn{Name: "status", Value: string(*p.Status)})
	}
	addString("audio_file_path", p.AudioFilePath)
	addString("transcript", p.Transcript)
	addString("executive_summary", p.ExecutiveSummary)
	addString("discussion_notes", p.DiscussionNotes)
	addString("action_items", p.ActionItems)
	addString("meeting_outline", p.MeetingOutline)
	addInt("word_count", p.WordCount)
	addInt("duration_seconds", p.DurationSeconds)
	return out
}

// FieldNames lists every present field, including participants and tags.
func (p MeetingPatch) FieldNames() []string {
	cols := p.Columns()
	out := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		out = append(out, c.Name)
	}
	if p.Participants != nil {
		out = append(out, "participants")
	}
	if p.Tags != nil {
		out = append(out, "tags")
	}
	return out
}

func (p MeetingPatch) IsEmpty() bool {
	return len(p.FieldNames()) == 0
}
