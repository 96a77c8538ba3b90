package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *HTTPServerMetrics) string {
	t.Helper()
	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	return res.Body.String()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return m.Middleware("api", next) })
	r.Get("/api/meetings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/meetings/"+id, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `meetings_http_requests_total{method="GET",route="/api/meetings/{id}",service="api",status="404"} 2`)
	assert.NotContains(t, body, `route="/api/meetings/a"`)
}

func TestMiddlewareRecordsImplicitStatusAndBodySize(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return m.Middleware("api", next) })
	r.Get("/download/{session_id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("notes"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/download/s-1", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `meetings_http_requests_total{method="GET",route="/download/{session_id}",service="api",status="200"} 1`)
	assert.Contains(t, body, `meetings_http_response_size_bytes_sum{route="/download/{session_id}",service="api"} 5`)
}

func TestPipelineMetricsShareRegistry(t *testing.T) {
	httpMetrics := NewHTTPServerMetrics("api")
	pipeline := NewPipelineMetrics("api", httpMetrics.Registerer())

	pipeline.StartJob()
	pipeline.ObserveStage("transcribe", 2*time.Second)
	pipeline.ObserveLLMCall("llama3.1:8b", time.Second, nil)
	pipeline.ObserveLLMCall("", time.Second, errors.New("boom"))
	pipeline.FinishJob(3*time.Second, errors.New("boom"))
	httpMetrics.RecordRejection("api", "rate_limit")

	body := scrape(t, httpMetrics)
	assert.Contains(t, body, `meetings_pipeline_jobs_in_flight{service="api"} 0`)
	assert.Contains(t, body, `meetings_pipeline_jobs_total{service="api",status="error"} 1`)
	assert.Contains(t, body, `meetings_pipeline_stage_duration_seconds_count{service="api",stage="transcribe"} 1`)
	assert.Contains(t, body, `meetings_llm_calls_total{model="unknown",service="api",status="error"} 1`)
	assert.Contains(t, body, `meetings_llm_calls_total{model="llama3.1:8b",service="api",status="success"} 1`)
	assert.Contains(t, body, `meetings_http_rejected_total{reason="rate_limit",service="api"} 1`)
}
