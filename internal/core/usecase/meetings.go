package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
)

type MeetingUseCase struct {
	repo ports.MeetingRepository
	now  func() time.Time
}

func NewMeetingUseCase(repo ports.MeetingRepository) *MeetingUseCase {
	return &MeetingUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (uc *MeetingUseCase) Create(ctx context.Context, in domain.NewMeeting) (*domain.Meeting, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create meeting", errors.New("title is required"))
	}

	now := uc.now()
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	meeting := &domain.Meeting{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Agenda:        in.Agenda,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		Status:        domain.StatusPlanned,
		CreatedAt:     now,
		UpdatedAt:     now,
		Participants:  domain.KeepParticipants(in.Participants),
		Tags:          tags,
	}

	if err := uc.repo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	return meeting, nil
}

func (uc *MeetingUseCase) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	meeting, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return meeting, nil
}

// Update applies the scalar fields first, then replaces participants and tags
// when present. Each step is its own transaction.
func (uc *MeetingUseCase) Update(ctx context.Context, id string, patch domain.MeetingPatch) ([]string, error) {
	if patch.IsEmpty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update meeting", errors.New("no valid fields to update"))
	}

	if len(patch.Columns()) > 0 {
		if err := uc.repo.Update(ctx, id, patch); err != nil {
			return nil, fmt.Errorf("update meeting: %w", err)
		}
	}
	if patch.Participants != nil {
		if err := uc.repo.ReplaceParticipants(ctx, id, *patch.Participants); err != nil {
			return nil, fmt.Errorf("replace participants: %w", err)
		}
	}
	if patch.Tags != nil {
		if err := uc.repo.ReplaceTags(ctx, id, *patch.Tags); err != nil {
			return nil, fmt.Errorf("replace tags: %w", err)
		}
	}
	return patch.FieldNames(), nil
}

func (uc *MeetingUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}

func (uc *MeetingUseCase) List(ctx context.Context, filter domain.ListFilter) ([]domain.Meeting, int, error) {
	filter = filter.Normalize()

	meetings, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}

func (uc *MeetingUseCase) Search(ctx context.Context, query string) ([]domain.Meeting, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search meetings", errors.New("query is required"))
	}
	meetings, err := uc.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	return meetings, nil
}
