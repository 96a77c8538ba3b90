package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/config"
	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	cfg := testConfig()
	cfg.APIRateLimitRPS = 1
	cfg.APIRateLimitBurst = 1
	handler := newTestRouter(cfg, newServiceFakes())

	req1 := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", res2.Header().Get("Retry-After"))
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health must bypass the rate limit, got %d", health.Code)
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)
	var rejected []string

	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	tc := trafficControl{onReject: func(reason string) { rejected = append(rejected, reason) }}
	handler := tc.backpressure(1, 20*time.Millisecond)(base)

	go func() {
		req := httptest.NewRequest(http.MethodPost, "/process-audio", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodPost, "/process-audio", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated backpressure gate, got %d", res2.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(bytes.NewReader(res2.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected overload error message in response")
	}
	if len(rejected) != 1 || rejected[0] != "backpressure" {
		t.Fatalf("expected one backpressure rejection, got %v", rejected)
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
}

type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) Process(context.Context, domain.ProcessRequest) (*domain.ProcessingResult, error) {
	p.started <- struct{}{}
	<-p.release
	return &domain.ProcessingResult{SessionID: "s-1"}, nil
}

func TestAdmissionGateIsSharedAcrossProcessingRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.ProcessMaxConcurrentJobs = 1
	cfg.ProcessQueueWait = 20 * time.Millisecond

	proc := &blockingProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	fakes := newServiceFakes()
	handler := NewRouter(cfg, Services{
		Meetings:  fakes.meetings,
		Processor: proc,
		Reports:   fakes.reports,
		Health:    healthFake{},
		Exporter:  fakes.exporter,
	}, nil).Handler()

	done := make(chan int, 1)
	legacy := uploadRequest(t, "/process-audio", "file", "a.mp3", "audio")
	go func() {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, legacy)
		done <- res.Code
	}()
	<-proc.started

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, uploadRequest(t, "/api/meetings/m-1/process-audio", "file", "b.mp3", "audio"))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("meeting job must wait for the legacy job's slot, got %d", res.Code)
	}

	close(proc.release)
	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Fatalf("legacy job expected 200, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for legacy job")
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, uploadRequest(t, "/api/meetings/m-1/process-audio", "file", "b.mp3", "audio"))
	if res.Code != http.StatusOK {
		t.Fatalf("slot must be free after the first job, got %d", res.Code)
	}
}

func TestTrafficControlDisabledByDefault(t *testing.T) {
	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	var tc trafficControl
	var cfg config.Config
	handler := tc.backpressure(cfg.ProcessMaxConcurrentJobs, cfg.ProcessQueueWait)(tc.rateLimit(base, cfg.APIRateLimitRPS, cfg.APIRateLimitBurst))

	for i := 0; i < 50; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("request %d rejected with %d", i, res.Code)
		}
	}
}

func TestRequestIDIsEchoedOrMinted(t *testing.T) {
	handler := newTestRouter(testConfig(), newServiceFakes())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/health", nil))
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}
