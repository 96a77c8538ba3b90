package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records audio processing jobs and the LLM calls they make.
type PipelineMetrics struct {
	service string

	jobTotal      *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobInFlight   prometheus.Gauge
	stageDuration *prometheus.HistogramVec
	llmCallsTotal *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
}

var longBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1200}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "jobs_total",
			Help:      "Total processing jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "Processing job duration in seconds by status.",
			Buckets:   longBuckets,
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "jobs_in_flight",
			Help:      "Number of processing jobs currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of successful pipeline stages in seconds.",
			Buckets:   longBuckets,
		},
		[]string{"service", "stage"},
	)
	llmCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total LLM generate calls by model and status.",
		},
		[]string{"service", "model", "status"},
	)
	llmDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM generate call duration in seconds.",
			Buckets:   longBuckets,
		},
		[]string{"service", "model"},
	)

	registerer.MustRegister(jobTotal, jobDuration, jobInFlight, stageDuration, llmCallsTotal, llmDuration)

	return &PipelineMetrics{
		service:       service,
		jobTotal:      jobTotal,
		jobDuration:   jobDuration,
		jobInFlight:   jobInFlight,
		stageDuration: stageDuration,
		llmCallsTotal: llmCallsTotal,
		llmDuration:   llmDuration,
	}
}

func (m *PipelineMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *PipelineMetrics) FinishJob(duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(m.service, status).Inc()
	m.jobDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

// ObserveLLMCall matches the ollama client's OnCall hook.
func (m *PipelineMetrics) ObserveLLMCall(model string, duration time.Duration, err error) {
	if model == "" {
		model = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(m.service, model, status).Inc()
	m.llmDuration.WithLabelValues(m.service, model).Observe(duration.Seconds())
}
