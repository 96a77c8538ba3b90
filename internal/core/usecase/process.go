package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
)

// SupportedAudioExtensions lists the upload formats accepted by the pipeline.
var SupportedAudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".mp4", ".webm"}

const (
	stageTranscode  = "transcode"
	stageTranscribe = "transcribe"
	stageSummarize  = "summarize"
	stagePersist    = "persist"
)

type ProcessAudioDeps struct {
	Repo        ports.MeetingRepository
	Uploads     ports.ObjectStorage
	Audio       ports.ObjectStorage
	Artifacts   ports.ArtifactStore
	Transcoder  ports.Transcoder
	Transcriber ports.Transcriber
	LLM         ports.TextGenerator
	LLMHealth   ports.LLMHealthChecker
	Prompts     ports.PromptSet
	Publisher   ports.EventPublisher
	Observer    ports.JobObserver
	Model       string
}

type ProcessAudioUseCase struct {
	repo        ports.MeetingRepository
	uploads     ports.ObjectStorage
	audio       ports.ObjectStorage
	artifacts   ports.ArtifactStore
	transcoder  ports.Transcoder
	transcriber ports.Transcriber
	llm         ports.TextGenerator
	llmHealth   ports.LLMHealthChecker
	prompts     ports.PromptSet
	publisher   ports.EventPublisher
	observer    ports.JobObserver
	model       string
	now         func() time.Time
}

// NewProcessAudioUseCase builds the orchestrator. Transcriber, Artifacts,
// Publisher and Observer may be nil.
func NewProcessAudioUseCase(deps ProcessAudioDeps) *ProcessAudioUseCase {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &ProcessAudioUseCase{
		repo:        deps.Repo,
		uploads:     deps.Uploads,
		audio:       deps.Audio,
		artifacts:   deps.Artifacts,
		transcoder:  deps.Transcoder,
		transcriber: deps.Transcriber,
		llm:         deps.LLM,
		llmHealth:   deps.LLMHealth,
		prompts:     deps.Prompts,
		publisher:   deps.Publisher,
		observer:    observer,
		model:       deps.Model,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type processJob struct {
	id         string
	ext        string
	uploadKey  string
	pcmKey     string
	meeting    *domain.Meeting
	transcript domain.Transcription
}

func (uc *ProcessAudioUseCase) Process(ctx context.Context, req domain.ProcessRequest) (result *domain.ProcessingResult, err error) {
	started := time.Now()
	uc.observer.StartJob()
	defer func() {
		uc.observer.FinishJob(time.Since(started), err)
	}()

	job, err := uc.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	defer uc.cleanup(job)

	if err := uc.storeUpload(ctx, job, req.Body); err != nil {
		return nil, err
	}

	audioKey, err := uc.transcode(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := uc.transcribe(ctx, job, audioKey); err != nil {
		return nil, err
	}

	res, err := uc.summarize(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := uc.persist(ctx, job, res); err != nil {
		return nil, err
	}

	uc.publish(ctx, job, res)
	slog.Info("processing_done",
		"session_id", job.id,
		"meeting_id", req.MeetingID,
		"word_count", res.WordCount,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res, nil
}

func (uc *ProcessAudioUseCase) validate(ctx context.Context, req domain.ProcessRequest) (*processJob, error) {
	name := strings.TrimSpace(req.Filename)
	if name == "" || req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("No file provided"))
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !isSupportedAudio(ext) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("Unsupported file format. Supported: %s", strings.Join(SupportedAudioExtensions, ", ")))
	}

	job := &processJob{ext: ext}
	if req.MeetingID != "" {
		meeting, err := uc.repo.GetByID(ctx, req.MeetingID)
		if err != nil {
			return nil, fmt.Errorf("fetch meeting by id: %w", err)
		}
		job.meeting = meeting
	}

	if err := uc.llmHealth.Ping(ctx); err != nil {
		slog.Warn("ollama_unavailable", "error", err.Error())
		return nil, domain.WrapError(domain.ErrTemporary, "check llm", errors.New("Ollama service is not available"))
	}
	if uc.transcriber == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "check transcriber", errors.New("Whisper model is not loaded"))
	}

	job.id = uuid.NewString()
	job.uploadKey = job.id + ext
	return job, nil
}

func (uc *ProcessAudioUseCase) storeUpload(ctx context.Context, job *processJob, body io.Reader) error {
	if err := uc.uploads.Save(ctx, job.uploadKey, body); err != nil {
		return fmt.Errorf("Processing failed: store upload: %w", err)
	}
	return nil
}

func (uc *ProcessAudioUseCase) transcode(ctx context.Context, job *processJob) (string, error) {
	if job.ext == ".wav" {
		return job.uploadKey, nil
	}

	started := time.Now()
	job.pcmKey = job.id + "_converted.wav"
	err := uc.transcoder.ToPCM(ctx, uc.uploads.Path(job.uploadKey), uc.uploads.Path(job.pcmKey))
	uc.observer.ObserveStage(stageTranscode, time.Since(started))
	if err != nil {
		return "", fmt.Errorf("Audio conversion failed: %w", err)
	}
	return job.pcmKey, nil
}

func (uc *ProcessAudioUseCase) transcribe(ctx context.Context, job *processJob, audioKey string) error {
	started := time.Now()
	out, err := uc.transcriber.Transcribe(ctx, uc.uploads.Path(audioKey))
	uc.observer.ObserveStage(stageTranscribe, time.Since(started))
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrUpstreamTimeout) {
			return fmt.Errorf("transcribe audio: %w", err)
		}
		return fmt.Errorf("Transcription failed: %w", err)
	}

	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "transcribe audio", domain.ErrNoSpeech)
	}
	job.transcript = out
	return nil
}

func (uc *ProcessAudioUseCase) summarize(ctx context.Context, job *processJob) (*domain.ProcessingResult, error) {
	started := time.Now()
	defer func() {
		uc.observer.ObserveStage(stageSummarize, time.Since(started))
	}()

	res := &domain.ProcessingResult{
		Transcript:    job.transcript.Text,
		WordCount:     domain.WordCount(job.transcript.Text),
		AnalysisDepth: domain.AnalysisDepthConciseFactual,
		SessionID:     job.id,
	}
	if job.meeting != nil {
		res.MeetingID = job.meeting.ID
		res.MeetingTitle = job.meeting.Title
	}

	for _, section := range uc.prompts.Sections() {
		prompt, err := uc.prompts.Render(section, job.transcript.Text)
		if err != nil {
			return nil, fmt.Errorf("render %s prompt: %w", section, err)
		}
		text, err := uc.llm.Complete(ctx, prompt, uc.model)
		if err != nil {
			return nil, llmFailure(section, err)
		}
		res.SetSection(section, strings.TrimSpace(text))
	}

	res.GeneratedAt = uc.now()
	return res, nil
}

func llmFailure(section domain.Section, err error) error {
	switch {
	case domain.IsKind(err, domain.ErrUpstreamTimeout):
		return domain.WrapError(domain.ErrUpstreamTimeout, "generate "+string(section), errors.New("LLM request timed out"))
	case domain.IsKind(err, domain.ErrTemporary):
		return fmt.Errorf("generate %s: %w", section, err)
	default:
		return fmt.Errorf("LLM processing failed: %w", err)
	}
}

func (uc *ProcessAudioUseCase) persist(ctx context.Context, job *processJob, res *domain.ProcessingResult) error {
	started := time.Now()
	defer func() {
		uc.observer.ObserveStage(stagePersist, time.Since(started))
	}()

	if job.meeting != nil {
		if err := uc.persistMeeting(ctx, job, res); err != nil {
			return err
		}
	}

	if uc.artifacts == nil {
		return nil
	}
	if err := uc.artifacts.SaveResult(ctx, job.id, *res); err != nil {
		if job.meeting != nil {
			slog.Warn("artifact_write_failed", "session_id", job.id, "error", err.Error())
			return nil
		}
		return fmt.Errorf("Processing failed: save result: %w", err)
	}
	return nil
}

// persistMeeting writes every generated column, empty ones included. The
// previous recording is removed only after the row points at the new one.
func (uc *ProcessAudioUseCase) persistMeeting(ctx context.Context, job *processJob, res *domain.ProcessingResult) error {
	audioKey := job.meeting.ID + "_" + job.id + job.ext
	if err := uc.copyUpload(ctx, job.uploadKey, audioKey); err != nil {
		return fmt.Errorf("Processing failed: store audio: %w", err)
	}

	status := domain.StatusCompleted
	audioPath := uc.audio.Path(audioKey)
	duration := int(job.transcript.Duration.Round(time.Second) / time.Second)
	patch := domain.MeetingPatch{
		Status:           &status,
		AudioFilePath:    &audioPath,
		Transcript:       &res.Transcript,
		ExecutiveSummary: &res.ExecutiveSummary,
		DiscussionNotes:  &res.DiscussionNotes,
		ActionItems:      &res.ActionItems,
		MeetingOutline:   &res.MeetingOutline,
		WordCount:        &res.WordCount,
		DurationSeconds:  &duration,
	}

	if err := uc.repo.Update(ctx, job.meeting.ID, patch); err != nil {
		uc.removeAudio(ctx, audioKey)
		return fmt.Errorf("save meeting notes: %w", err)
	}

	if prev := job.meeting.AudioFilePath; prev != "" && prev != audioPath {
		if key := filepath.Base(prev); uc.audio.Path(key) == prev {
			uc.removeAudio(ctx, key)
		}
	}
	return nil
}

func (uc *ProcessAudioUseCase) removeAudio(ctx context.Context, key string) {
	if err := uc.audio.Remove(ctx, key); err != nil {
		slog.Warn("audio_cleanup_failed", "key", key, "error", err.Error())
	}
}

func (uc *ProcessAudioUseCase) copyUpload(ctx context.Context, srcKey, dstKey string) error {
	src, err := uc.uploads.Open(ctx, srcKey)
	if err != nil {
		return err
	}
	defer src.Close()
	return uc.audio.Save(ctx, dstKey, src)
}

func (uc *ProcessAudioUseCase) publish(ctx context.Context, job *processJob, res *domain.ProcessingResult) {
	if uc.publisher == nil {
		return
	}
	event := domain.MeetingProcessedEvent{
		MeetingID:   res.MeetingID,
		SessionID:   job.id,
		Status:      domain.StatusCompleted,
		WordCount:   res.WordCount,
		GeneratedAt: res.GeneratedAt,
	}
	if err := uc.publisher.PublishMeetingProcessed(ctx, event); err != nil {
		slog.Warn("publish_meeting_processed_failed", "session_id", job.id, "error", err.Error())
	}
}

func (uc *ProcessAudioUseCase) cleanup(job *processJob) {
	ctx := context.Background()
	for _, key := range []string{job.uploadKey, job.pcmKey} {
		if key == "" {
			continue
		}
		if err := uc.uploads.Remove(ctx, key); err != nil {
			slog.Warn("scratch_cleanup_failed", "key", key, "error", err.Error())
		}
	}
}

func isSupportedAudio(ext string) bool {
	for _, allowed := range SupportedAudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

type noopObserver struct{}

func (noopObserver) StartJob() {}

func (noopObserver) FinishJob(time.Duration, error) {}

func (noopObserver) ObserveStage(string, time.Duration) {}
