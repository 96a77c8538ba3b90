package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

const meetingColumns = `id, title, agenda, scheduled_date, scheduled_time, status, created_at, updated_at,
	audio_file_path, transcript, executive_summary, discussion_notes, action_items, meeting_outline,
	word_count, duration_seconds`

type MeetingRepository struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewMeetingRepository(db *sql.DB, driver string) *MeetingRepository {
	return &MeetingRepository{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func notFound(op, id string) error {
	return domain.WrapError(domain.ErrMeetingNotFound, op, fmt.Errorf("Meeting not found: %s", id))
}

func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO meetings (id, title, agenda, scheduled_date, scheduled_time, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, meeting.ID, meeting.Title, meeting.Agenda, meeting.ScheduledDate, meeting.ScheduledTime,
		string(meeting.Status), meeting.CreatedAt, meeting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}

	if err := insertParticipants(ctx, tx, meeting.ID, meeting.Participants); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, meeting.ID, meeting.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}
	return nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+meetingColumns+`
FROM meetings
WHERE id = $1
`, id)

	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get meeting", id)
		}
		return nil, err
	}

	if meeting.Participants, err = r.loadParticipants(ctx, id); err != nil {
		return nil, err
	}
	if meeting.Tags, err = r.loadTags(ctx, id); err != nil {
		return nil, err
	}
	return meeting, nil
}

// Update writes the scalar fields of patch and bumps updated_at.
func (r *MeetingRepository) Update(ctx context.Context, id string, patch domain.MeetingPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "update meeting", errors.New("no valid fields to update"))
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		sets = append(sets, col.Name+" = $"+strconv.Itoa(i+1))
		args = append(args, col.Value)
	}
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(cols)+1))
	args = append(args, r.now())
	args = append(args, id)

	query := "UPDATE meetings SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update meeting rows affected: %w", err)
	}
	if rows == 0 {
		return notFound("update meeting", id)
	}
	return nil
}

func (r *MeetingRepository) ReplaceParticipants(ctx context.Context, id string, participants []domain.Participant) error {
	return r.replace(ctx, id, "participants", func(tx *sql.Tx) error {
		return insertParticipants(ctx, tx, id, participants)
	})
}

func (r *MeetingRepository) ReplaceTags(ctx context.Context, id string, tags []string) error {
	return r.replace(ctx, id, "tags", func(tx *sql.Tx) error {
		return insertTags(ctx, tx, id, tags)
	})
}

func (r *MeetingRepository) replace(ctx context.Context, id, table string, insert func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s tx: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM meetings WHERE id = $1`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("replace "+table, id)
		}
		return fmt.Errorf("check meeting: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE meeting_id = $1`, id); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meetings SET updated_at = $1 WHERE id = $2`, r.now(), id); err != nil {
		return fmt.Errorf("touch meeting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace %s tx: %w", table, err)
	}
	return nil
}

func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE meeting_id = $1`, id); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE meeting_id = $1`, id); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meeting rows affected: %w", err)
	}
	if rows == 0 {
		return notFound("delete meeting", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func (r *MeetingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Meeting, error) {
	filter = filter.Normalize()

	query := `
SELECT ` + meetingColumns + `,
	(SELECT COUNT(*) FROM participants p WHERE p.meeting_id = meetings.id) AS participant_count
FROM meetings
`
	args := make([]any, 0, 3)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += "WHERE status = $1\n"
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf("ORDER BY scheduled_date DESC, scheduled_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Meeting, 0)
	for rows.Next() {
		var count int
		meeting, err := scanMeeting(rows, &count)
		if err != nil {
			return nil, err
		}
		meeting.ParticipantCount = &count
		out = append(out, *meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return out, nil
}

func (r *MeetingRepository) Count(ctx context.Context, filter domain.ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM meetings`
	args := make([]any, 0, 1)
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count meetings: %w", err)
	}
	return total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches query as a literal substring of title, agenda or any participant name.
func (r *MeetingRepository) Search(ctx context.Context, query string) ([]domain.Meeting, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT `+meetingColumns+`
FROM meetings
WHERE title LIKE $1 ESCAPE '\'
	OR agenda LIKE $1 ESCAPE '\'
	OR EXISTS (SELECT 1 FROM participants p WHERE p.meeting_id = meetings.id AND p.name LIKE $1 ESCAPE '\')
ORDER BY scheduled_date DESC
`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return out, nil
}

func (r *MeetingRepository) loadParticipants(ctx context.Context, id string) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, email, role FROM participants WHERE meeting_id = $1 ORDER BY id
`, id)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		var email, role sql.NullString
		if err := rows.Scan(&p.Name, &email, &role); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Email = email.String
		p.Role = role.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (r *MeetingRepository) loadTags(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag FROM tags WHERE meeting_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner, extra ...any) (*domain.Meeting, error) {
	var m domain.Meeting
	var status string
	var agenda, audioPath, transcript, summary, notes, actions, outline sql.NullString

	dest := []any{
		&m.ID, &m.Title, &agenda, &m.ScheduledDate, &m.ScheduledTime, &status, &m.CreatedAt, &m.UpdatedAt,
		&audioPath, &transcript, &summary, &notes, &actions, &outline,
		&m.WordCount, &m.DurationSeconds,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan meeting: %w", err)
	}

	m.Status = domain.MeetingStatus(status)
	m.Agenda = agenda.String
	m.AudioFilePath = audioPath.String
	m.Transcript = transcript.String
	m.ExecutiveSummary = summary.String
	m.DiscussionNotes = notes.String
	m.ActionItems = actions.String
	m.MeetingOutline = outline.String
	return &m, nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, meetingID string, participants []domain.Participant) error {
	for _, p := range domain.KeepParticipants(participants) {
		_, err := tx.ExecContext(ctx, `
INSERT INTO participants (meeting_id, name, email, role) VALUES ($1,$2,$3,$4)
`, meetingID, p.Name, p.Email, p.Role)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}

func insertTags(ctx context.Context, tx *sql.Tx, meetingID string, tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (meeting_id, tag) VALUES ($1,$2)`, meetingID, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}
