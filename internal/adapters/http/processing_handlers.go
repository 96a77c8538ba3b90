package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

const multipartMemory = 32 << 20

func (rt *Router) processMeetingAudio(w http.ResponseWriter, r *http.Request) {
	rt.processAudio(w, r, chi.URLParam(r, "id"))
}

func (rt *Router) processLegacyAudio(w http.ResponseWriter, r *http.Request) {
	rt.processAudio(w, r, "")
}

func (rt *Router) processAudio(w http.ResponseWriter, r *http.Request, meetingID string) {
	if limit := rt.cfg.MaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse upload", errors.New("No file provided")))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("No file provided")))
		return
	}
	defer file.Close()

	result, err := rt.svc.Processor.Process(r.Context(), domain.ProcessRequest{
		MeetingID: meetingID,
		Filename:  header.Filename,
		Body:      file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) downloadMeeting(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseReportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.svc.Reports.MeetingReport(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, report.Filename, report.ContentType, report.Body)
}

func (rt *Router) downloadSession(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseReportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.svc.Reports.SessionReport(r.Context(), chi.URLParam(r, "session_id"), format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, report.Filename, report.ContentType, report.Body)
}

func (rt *Router) exportMeetings(w http.ResponseWriter, r *http.Request) {
	status := domain.MeetingStatus(strings.TrimSpace(r.URL.Query().Get("status")))

	var buf bytes.Buffer
	if err := rt.svc.Exporter.ExportMeetings(r.Context(), &buf, status); err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, "meetings.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
