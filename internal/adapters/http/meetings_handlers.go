package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

type meetingListResponse struct {
	Meetings []domain.Meeting `json:"meetings"`
	Total    int              `json:"total"`
}

func decodeJSONBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode body", errors.New("Invalid JSON body"))
	}
	return nil
}

func (rt *Router) createMeeting(w http.ResponseWriter, r *http.Request) {
	var in domain.NewMeeting
	if err := decodeJSONBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	meeting, err := rt.svc.Meetings.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"meeting_id": meeting.ID, "status": "created"})
}

func (rt *Router) listMeetings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := queryInt(query.Get("limit"), domain.DefaultListLimit, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(query.Get("offset"), 0, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}

	meetings, total, err := rt.svc.Meetings.List(r.Context(), domain.ListFilter{
		Status: domain.MeetingStatus(strings.TrimSpace(query.Get("status"))),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingListResponse{Meetings: nonNil(meetings), Total: total})
}

func (rt *Router) getMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := rt.svc.Meetings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (rt *Router) updateMeeting(w http.ResponseWriter, r *http.Request) {
	var patch domain.MeetingPatch
	if err := decodeJSONBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	fields, err := rt.svc.Meetings.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "updated_fields": fields})
}

func (rt *Router) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.Meetings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) searchMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := rt.svc.Meetings.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	meetings = nonNil(meetings)
	writeJSON(w, http.StatusOK, meetingListResponse{Meetings: meetings, Total: len(meetings)})
}

func queryInt(raw string, fallback int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse "+name, errors.New(name+" must be an integer"))
	}
	return n, nil
}

func nonNil(meetings []domain.Meeting) []domain.Meeting {
	if meetings == nil {
		return []domain.Meeting{}
	}
	return meetings
}
