package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrMeetingNotFound), domain.IsKind(err, domain.ErrArtifactNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends {"error": message}. Only the innermost step message is
// exposed; the full chain goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"route", routePattern(r),
		"status", status,
		"error", err.Error(),
	}
	if status >= 500 {
		slog.Error("request_failed", attrs...)
	} else {
		slog.Debug("request_rejected", attrs...)
	}

	message := domain.Message(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		message = "File too large"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
