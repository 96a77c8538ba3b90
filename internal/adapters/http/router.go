package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/developr-99/notes-generator-llm-app/internal/config"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
	"github.com/developr-99/notes-generator-llm-app/internal/observability/metrics"
)

const serviceName = "api"

// Services groups the inbound ports served over HTTP.
type Services struct {
	Meetings  ports.MeetingService
	Processor ports.AudioProcessor
	Reports   ports.ReportService
	Health    ports.HealthReporter
	Exporter  ports.SpreadsheetExporter
}

type Router struct {
	cfg     config.Config
	svc     Services
	metrics *metrics.HTTPServerMetrics
	traffic trafficControl
}

// NewRouter builds the API. httpMetrics may be nil, in which case /metrics is
// not mounted.
func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	rt := &Router{cfg: cfg, svc: svc, metrics: httpMetrics}
	if httpMetrics != nil {
		rt.traffic.onReject = func(reason string) { httpMetrics.RecordRejection(serviceName, reason) }
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler { return rt.metrics.Middleware(serviceName, next) })
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Get("/health", rt.health)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	admit := rt.traffic.backpressure(rt.cfg.ProcessMaxConcurrentJobs, rt.cfg.ProcessQueueWait)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return rt.traffic.rateLimit(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
		})

		r.With(admit).Post("/process-audio", rt.processLegacyAudio)
		r.Get("/download/{session_id}", rt.downloadSession)

		r.Route("/api/meetings", func(r chi.Router) {
			r.Post("/", rt.createMeeting)
			r.Get("/", rt.listMeetings)
			r.Get("/export", rt.exportMeetings)
			r.Get("/search/{query}", rt.searchMeetings)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.getMeeting)
				r.Put("/", rt.updateMeeting)
				r.Delete("/", rt.deleteMeeting)
				r.With(admit).Post("/process-audio", rt.processMeetingAudio)
				r.Get("/download", rt.downloadMeeting)
			})
		})
	})

	return r
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.svc.Health.Health(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
