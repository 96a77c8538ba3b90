package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/config"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
	"github.com/developr-99/notes-generator-llm-app/internal/core/usecase"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/audio/ffmpeg"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/export/xlsx"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/llm/ollama"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/prompts"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/queue/nats"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/repository/sqlrepo"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/resilience"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/storage/localfs"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/transcription/whisper"
	"github.com/developr-99/notes-generator-llm-app/internal/observability/metrics"
)

const serviceName = "api"

type App struct {
	Config config.Config

	Meetings  ports.MeetingService
	Processor ports.AudioProcessor
	Reports   ports.ReportService
	Health    ports.HealthReporter
	Exporter  ports.SpreadsheetExporter

	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	repo, db, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { _ = db.Close() }}
	fail := func(err error) (*App, error) {
		runClosers(closers)
		return nil, err
	}

	uploads, err := localfs.New(cfg.UploadDir)
	if err != nil {
		return fail(fmt.Errorf("init upload storage: %w", err))
	}
	audio, err := localfs.New(cfg.AudioDir)
	if err != nil {
		return fail(fmt.Errorf("init audio storage: %w", err))
	}
	var artifacts ports.ArtifactStore
	if cfg.LegacyArtifactsEnabled {
		artifactFiles, err := localfs.New(cfg.ArtifactDir)
		if err != nil {
			return fail(fmt.Errorf("init artifact storage: %w", err))
		}
		artifacts = localfs.NewArtifactStore(artifactFiles)
	}

	promptSet, err := prompts.Load(cfg.PromptSet, cfg.PromptsFile)
	if err != nil {
		return fail(fmt.Errorf("load prompts: %w", err))
	}

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName, httpMetrics.Registerer())

	llm := NewLLMClient(cfg, pipelineMetrics.ObserveLLMCall)
	if err := llm.Ping(ctx); err != nil {
		slog.Warn("ollama_unreachable_at_startup", "url", cfg.OllamaURL, "error", err.Error())
	} else {
		slog.Info("ollama_connected", "url", cfg.OllamaURL, "model", cfg.OllamaGenModel)
	}

	var transcriber ports.Transcriber
	engine, err := LoadTranscriber(ctx, cfg)
	switch {
	case err == nil:
		transcriber = engine
		slog.Info("whisper_loaded", "backend", cfg.WhisperBackend)
	case cfg.WhisperRequired:
		return fail(fmt.Errorf("load whisper: %w", err))
	default:
		slog.Warn("whisper_not_loaded", "backend", cfg.WhisperBackend, "error", err.Error())
	}

	transcoder := ffmpeg.New(cfg.FFmpegBinary)
	if err := transcoder.Check(); err != nil {
		slog.Warn("ffmpeg_not_found", "binary", cfg.FFmpegBinary, "error", err.Error())
	}

	var publisher ports.EventPublisher = nats.NoopPublisher{}
	if strings.TrimSpace(cfg.NATSURL) != "" {
		natsPublisher, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			return fail(fmt.Errorf("init event publisher: %w", err))
		}
		closers = append(closers, natsPublisher.Close)
		publisher = natsPublisher
	}

	processor := usecase.NewProcessAudioUseCase(usecase.ProcessAudioDeps{
		Repo:        repo,
		Uploads:     uploads,
		Audio:       audio,
		Artifacts:   artifacts,
		Transcoder:  transcoder,
		Transcriber: transcriber,
		LLM:         llm,
		LLMHealth:   llm,
		Prompts:     promptSet,
		Publisher:   publisher,
		Observer:    pipelineMetrics,
		Model:       cfg.OllamaGenModel,
	})

	slog.Info("bootstrap_done",
		"db_driver", cfg.DBDriver,
		"prompt_set", promptSet.Name(),
		"legacy_artifacts", cfg.LegacyArtifactsEnabled,
		"events", cfg.NATSURL != "",
	)

	return &App{
		Config:      cfg,
		Meetings:    usecase.NewMeetingUseCase(repo),
		Processor:   processor,
		Reports:     usecase.NewReportUseCase(repo, artifacts),
		Health:      usecase.NewHealthUseCase(llm, transcriber),
		Exporter:    usecase.NewExportUseCase(repo, xlsx.NewExporter()),
		HTTPMetrics: httpMetrics,
		closeFn:     func() { runClosers(closers) },
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// OpenRepository opens the configured database and applies the schema.
func OpenRepository(ctx context.Context, cfg config.Config) (*sqlrepo.MeetingRepository, *sql.DB, error) {
	db, err := sqlrepo.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repo := sqlrepo.NewMeetingRepository(db, cfg.DBDriver)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}

func NewLLMClient(cfg config.Config, onCall func(model string, duration time.Duration, err error)) *ollama.Client {
	exec := resilience.NewExecutor(resilience.Config{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    cfg.LLMRetryMaxAttempts,
			InitialBackoff: cfg.LLMRetryInitialBackoff,
			MaxBackoff:     cfg.LLMRetryMaxBackoff,
		},
		Breaker: resilience.BreakerPolicy{
			Enabled:      cfg.LLMBreakerEnabled,
			MinRequests:  cfg.LLMBreakerMinRequests,
			FailureRatio: cfg.LLMBreakerFailureRatio,
			OpenTimeout:  cfg.LLMBreakerOpenTimeout,
		},
	})
	return ollama.New(ollama.Options{
		BaseURL:      cfg.OllamaURL,
		Model:        cfg.OllamaGenModel,
		Timeout:      cfg.OllamaTimeout,
		ProbeTimeout: cfg.OllamaProbeTimeout,
		Temperature:  cfg.OllamaTemperature,
		TopP:         cfg.OllamaTopP,
		TopK:         cfg.OllamaTopK,
		OnCall:       onCall,
	}, exec)
}

// LoadTranscriber builds the configured speech-to-text backend and loads it.
func LoadTranscriber(ctx context.Context, cfg config.Config) (whisper.Engine, error) {
	engine, err := whisper.New(whisper.Options{
		Backend:   cfg.WhisperBackend,
		Language:  cfg.WhisperLanguage,
		URL:       cfg.WhisperURL,
		APIKey:    cfg.WhisperAPIKey,
		Model:     cfg.WhisperModel,
		Probe:     cfg.WhisperProbe,
		Binary:    cfg.WhisperBinary,
		ModelPath: cfg.WhisperModelPath,
	})
	if err != nil {
		return nil, err
	}
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
