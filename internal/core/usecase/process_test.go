package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

type memStorageFake struct {
	mu      sync.Mutex
	root    string
	objects map[string][]byte
	removed []string
	saveErr error
}

func newMemStorage(root string) *memStorageFake {
	return &memStorageFake{root: root, objects: map[string][]byte{}}
}

func (f *memStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *memStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("missing object " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *memStorageFake) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *memStorageFake) Path(key string) string { return f.root + "/" + key }

type transcoderFake struct {
	calls int
	err   error
}

func (f *transcoderFake) ToPCM(context.Context, string, string) error {
	f.calls++
	return f.err
}

type transcriberFake struct {
	out  domain.Transcription
	err  error
	path string
}

func (f *transcriberFake) Transcribe(_ context.Context, path string) (domain.Transcription, error) {
	f.path = path
	if f.err != nil {
		return domain.Transcription{}, f.err
	}
	return f.out, nil
}

type llmFake struct {
	prompts []string
	failAt  int
	err     error
	pingErr error
}

func (f *llmFake) Complete(_ context.Context, prompt, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil && len(f.prompts) == f.failAt {
		return "", f.err
	}
	section := strings.SplitN(prompt, "|", 2)[0]
	return "  " + section + " text  ", nil
}

func (f *llmFake) Ping(context.Context) error { return f.pingErr }

type promptSetFake struct {
	sections []domain.Section
}

func (f promptSetFake) Name() string { return "fake" }

func (f promptSetFake) Sections() []domain.Section { return f.sections }

func (f promptSetFake) Render(section domain.Section, transcript string) (string, error) {
	return string(section) + "|" + transcript, nil
}

type artifactStoreFake struct {
	saved map[string]domain.ProcessingResult
	err   error
}

func (f *artifactStoreFake) SaveResult(_ context.Context, id string, res domain.ProcessingResult) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]domain.ProcessingResult{}
	}
	f.saved[id] = res
	return nil
}

func (f *artifactStoreFake) LoadResult(_ context.Context, id string) (*domain.ProcessingResult, error) {
	res, ok := f.saved[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "load result", errors.New("Meeting notes not found"))
	}
	return &res, nil
}

type publisherFake struct {
	events []domain.MeetingProcessedEvent
	err    error
}

func (f *publisherFake) PublishMeetingProcessed(_ context.Context, event domain.MeetingProcessedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type observerFake struct {
	started  int
	finished []error
	stages   []string
}

func (f *observerFake) StartJob() { f.started++ }

func (f *observerFake) FinishJob(_ time.Duration, err error) { f.finished = append(f.finished, err) }

func (f *observerFake) ObserveStage(stage string, _ time.Duration) { f.stages = append(f.stages, stage) }

type processFixture struct {
	repo        *meetingRepoFake
	uploads     *memStorageFake
	audio       *memStorageFake
	artifacts   *artifactStoreFake
	transcoder  *transcoderFake
	transcriber *transcriberFake
	llm         *llmFake
	publisher   *publisherFake
	observer    *observerFake
	uc          *ProcessAudioUseCase
}

func newProcessFixture(sections ...domain.Section) *processFixture {
	if len(sections) == 0 {
		sections = []domain.Section{
			domain.SectionExecutiveSummary,
			domain.SectionActionItems,
			domain.SectionMeetingOutline,
		}
	}
	f := &processFixture{
		repo:        newMeetingRepoFake(&domain.Meeting{ID: "m-1", Title: "Weekly sync", Status: domain.StatusPlanned}),
		uploads:     newMemStorage("/scratch"),
		audio:       newMemStorage("/audio"),
		artifacts:   &artifactStoreFake{},
		transcoder:  &transcoderFake{},
		transcriber: &transcriberFake{out: domain.Transcription{Text: " we agreed to ship on friday ", Duration: 61400 * time.Millisecond}},
		llm:         &llmFake{},
		publisher:   &publisherFake{},
		observer:    &observerFake{},
	}
	f.build(sections)
	return f
}

func (f *processFixture) build(sections []domain.Section) {
	f.uc = NewProcessAudioUseCase(ProcessAudioDeps{
		Repo:        f.repo,
		Uploads:     f.uploads,
		Audio:       f.audio,
		Artifacts:   f.artifacts,
		Transcoder:  f.transcoder,
		Transcriber: f.transcriber,
		LLM:         f.llm,
		LLMHealth:   f.llm,
		Prompts:     promptSetFake{sections: sections},
		Publisher:   f.publisher,
		Observer:    f.observer,
		Model:       "llama3.1:8b",
	})
}

func (f *processFixture) run(meetingID, filename string) (*domain.ProcessingResult, error) {
	return f.uc.Process(context.Background(), domain.ProcessRequest{
		MeetingID: meetingID,
		Filename:  filename,
		Body:      strings.NewReader("RIFF-audio-bytes"),
	})
}

func TestProcessMeetingAudioSuccess(t *testing.T) {
	f := newProcessFixture()

	res, err := f.run("m-1", "standup.mp3")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Transcript != "we agreed to ship on friday" || res.WordCount != 6 {
		t.Fatalf("unexpected transcript/word count: %q %d", res.Transcript, res.WordCount)
	}
	if res.ExecutiveSummary != "executive_summary text" || res.ActionItems != "action_items text" || res.MeetingOutline != "meeting_outline text" {
		t.Fatalf("unexpected sections: %+v", res)
	}
	if res.MeetingID != "m-1" || res.MeetingTitle != "Weekly sync" || res.SessionID == "" {
		t.Fatalf("unexpected identifiers: %+v", res)
	}
	if res.AnalysisDepth != domain.AnalysisDepthConciseFactual || res.GeneratedAt.IsZero() {
		t.Fatalf("unexpected metadata: %+v", res)
	}
	if len(f.llm.prompts) != 3 {
		t.Fatalf("expected one LLM call per section, got %d", len(f.llm.prompts))
	}
	if f.transcoder.calls != 1 {
		t.Fatalf("expected mp3 to be transcoded once, got %d", f.transcoder.calls)
	}
	if f.transcriber.path != "/scratch/"+res.SessionID+"_converted.wav" {
		t.Fatalf("expected transcription of converted file, got %s", f.transcriber.path)
	}

	if len(f.repo.updates) != 1 {
		t.Fatalf("expected one meeting update, got %d", len(f.repo.updates))
	}
	patch := f.repo.updates[0]
	if *patch.Status != domain.StatusCompleted || *patch.Transcript != res.Transcript || *patch.WordCount != 6 {
		t.Fatalf("unexpected patch: %+v", patch)
	}
	if *patch.DurationSeconds != 61 {
		t.Fatalf("expected duration 61s, got %d", *patch.DurationSeconds)
	}
	audioKey := "m-1_" + res.SessionID + ".mp3"
	if *patch.AudioFilePath != "/audio/"+audioKey {
		t.Fatalf("unexpected audio path %s", *patch.AudioFilePath)
	}
	if patch.DiscussionNotes == nil || *patch.DiscussionNotes != "" {
		t.Fatalf("standard set must clear discussion notes, got %v", patch.DiscussionNotes)
	}
	if _, ok := f.audio.objects[audioKey]; !ok {
		t.Fatalf("expected audio copy keyed by meeting and job id")
	}
	if len(f.uploads.objects) != 0 {
		t.Fatalf("expected scratch files removed, left %v", f.uploads.objects)
	}
	if _, ok := f.artifacts.saved[res.SessionID]; !ok {
		t.Fatalf("expected artifact for session %s", res.SessionID)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].MeetingID != "m-1" {
		t.Fatalf("expected one processed event, got %+v", f.publisher.events)
	}
	if f.observer.started != 1 || len(f.observer.finished) != 1 || f.observer.finished[0] != nil {
		t.Fatalf("unexpected observer state: %+v", f.observer)
	}
}

func TestProcessReprocessingOverwritesGeneratedColumns(t *testing.T) {
	f := newProcessFixture()
	f.build([]domain.Section{
		domain.SectionExecutiveSummary,
		domain.SectionDiscussionNotes,
		domain.SectionActionItems,
		domain.SectionMeetingOutline,
	})
	if _, err := f.run("m-1", "first.mp3"); err != nil {
		t.Fatalf("detailed run error = %v", err)
	}

	f.build([]domain.Section{domain.SectionExecutiveSummary, domain.SectionActionItems, domain.SectionMeetingOutline})
	if _, err := f.run("m-1", "second.mp3"); err != nil {
		t.Fatalf("standard run error = %v", err)
	}

	if len(f.repo.updates) != 2 {
		t.Fatalf("expected two meeting updates, got %d", len(f.repo.updates))
	}
	if notes := f.repo.updates[0].DiscussionNotes; notes == nil || *notes != "discussion_notes text" {
		t.Fatalf("detailed run must write discussion notes, got %v", notes)
	}
	if notes := f.repo.updates[1].DiscussionNotes; notes == nil || *notes != "" {
		t.Fatalf("standard rerun must clear stale discussion notes, got %v", notes)
	}
}

func TestProcessReplacesPreviousRecording(t *testing.T) {
	f := newProcessFixture()
	f.repo.meetings["m-1"].AudioFilePath = "/audio/m-1_old.mp3"
	f.audio.objects["m-1_old.mp3"] = []byte("old")

	res, err := f.run("m-1", "standup.mp3")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if _, ok := f.audio.objects["m-1_old.mp3"]; ok {
		t.Fatalf("previous recording must be removed after the update")
	}
	if _, ok := f.audio.objects["m-1_"+res.SessionID+".mp3"]; !ok {
		t.Fatalf("new recording missing, have %v", f.audio.objects)
	}
}

func TestProcessFailedUpdateKeepsPreviousRecording(t *testing.T) {
	f := newProcessFixture()
	f.repo.meetings["m-1"].AudioFilePath = "/audio/m-1_old.mp3"
	f.audio.objects["m-1_old.mp3"] = []byte("old")
	f.repo.updateErr = errors.New("database is locked")

	if _, err := f.run("m-1", "standup.mp3"); err == nil {
		t.Fatalf("expected update failure")
	}
	if string(f.audio.objects["m-1_old.mp3"]) != "old" || len(f.audio.objects) != 1 {
		t.Fatalf("previous recording must be the only stored audio, have %v", f.audio.objects)
	}
}

func TestProcessWavSkipsTranscoding(t *testing.T) {
	f := newProcessFixture()

	res, err := f.run("m-1", "call.WAV")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.transcoder.calls != 0 {
		t.Fatalf("expected no transcoding for wav")
	}
	if f.transcriber.path != "/scratch/"+res.SessionID+".wav" {
		t.Fatalf("expected raw upload transcribed, got %s", f.transcriber.path)
	}
}

func TestProcessDetailedSetWritesDiscussionNotes(t *testing.T) {
	f := newProcessFixture(
		domain.SectionExecutiveSummary,
		domain.SectionDiscussionNotes,
		domain.SectionActionItems,
		domain.SectionMeetingOutline,
	)

	res, err := f.run("m-1", "a.ogg")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.DiscussionNotes != "discussion_notes text" {
		t.Fatalf("unexpected discussion notes %q", res.DiscussionNotes)
	}
	if f.repo.updates[0].DiscussionNotes == nil {
		t.Fatalf("expected discussion notes in patch")
	}
}

func TestProcessRejectsUnsupportedExtension(t *testing.T) {
	f := newProcessFixture()

	_, err := f.run("m-1", "notes.txt")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.HasPrefix(domain.Message(err), "Unsupported file format. Supported: .mp3, .wav") {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	if len(f.llm.prompts) != 0 || len(f.uploads.objects) != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestProcessUnknownMeeting(t *testing.T) {
	f := newProcessFixture()

	_, err := f.run("missing", "a.mp3")
	if !errors.Is(err, domain.ErrMeetingNotFound) {
		t.Fatalf("expected meeting not found, got %v", err)
	}
}

func TestProcessLLMUnavailable(t *testing.T) {
	f := newProcessFixture()
	f.llm.pingErr = errors.New("connection refused")

	_, err := f.run("m-1", "a.mp3")
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if domain.Message(err) != "Ollama service is not available" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
}

func TestProcessTranscriberNotLoaded(t *testing.T) {
	f := newProcessFixture()
	f.uc.transcriber = nil

	_, err := f.run("m-1", "a.mp3")
	if !errors.Is(err, domain.ErrTemporary) || domain.Message(err) != "Whisper model is not loaded" {
		t.Fatalf("expected transcriber unavailable, got %v", err)
	}
}

func TestProcessTranscodeFailureCleansUp(t *testing.T) {
	f := newProcessFixture()
	f.transcoder.err = errors.New("ffmpeg exit status 1")

	_, err := f.run("m-1", "a.m4a")
	if err == nil || !strings.HasPrefix(err.Error(), "Audio conversion failed") {
		t.Fatalf("expected conversion failure, got %v", err)
	}
	if len(f.uploads.objects) != 0 {
		t.Fatalf("expected scratch upload removed")
	}
	if len(f.repo.updates) != 0 {
		t.Fatalf("meeting must stay untouched")
	}
	if len(f.observer.finished) != 1 || f.observer.finished[0] == nil {
		t.Fatalf("expected failed job observed")
	}
}

func TestProcessNoSpeech(t *testing.T) {
	f := newProcessFixture()
	f.transcriber.out = domain.Transcription{Text: "   "}

	_, err := f.run("m-1", "a.wav")
	if !errors.Is(err, domain.ErrInvalidInput) || !errors.Is(err, domain.ErrNoSpeech) {
		t.Fatalf("expected no speech error, got %v", err)
	}
	if len(f.repo.updates) != 0 || len(f.llm.prompts) != 0 {
		t.Fatalf("expected pipeline to stop before summarization")
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	f := newProcessFixture()
	f.transcriber.err = errors.New("model crashed")

	_, err := f.run("m-1", "a.wav")
	if err == nil || !strings.HasPrefix(err.Error(), "Transcription failed") {
		t.Fatalf("expected transcription failure, got %v", err)
	}
}

func TestProcessLLMTimeoutAbortsOnFirstFailure(t *testing.T) {
	f := newProcessFixture()
	f.llm.failAt = 2
	f.llm.err = domain.WrapError(domain.ErrUpstreamTimeout, "ollama generate", errors.New("deadline exceeded"))

	_, err := f.run("m-1", "a.wav")
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected upstream timeout, got %v", err)
	}
	if domain.Message(err) != "LLM request timed out" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	if len(f.llm.prompts) != 2 {
		t.Fatalf("expected pipeline to stop at the failing call, got %d calls", len(f.llm.prompts))
	}
	if len(f.repo.updates) != 0 {
		t.Fatalf("meeting must stay untouched")
	}
}

func TestProcessLegacyJobWithoutMeeting(t *testing.T) {
	f := newProcessFixture()

	res, err := f.run("", "a.flac")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.MeetingID != "" || len(f.repo.updates) != 0 || len(f.audio.objects) != 0 {
		t.Fatalf("legacy job must not touch meetings: %+v", res)
	}
	if _, ok := f.artifacts.saved[res.SessionID]; !ok {
		t.Fatalf("expected legacy artifact")
	}
}

func TestProcessLegacyArtifactFailureFailsJob(t *testing.T) {
	f := newProcessFixture()
	f.artifacts.err = errors.New("read-only fs")

	if _, err := f.run("", "a.wav"); err == nil {
		t.Fatalf("expected error when legacy artifact cannot be written")
	}
}

func TestProcessMeetingArtifactFailureIsNotFatal(t *testing.T) {
	f := newProcessFixture()
	f.artifacts.err = errors.New("read-only fs")

	if _, err := f.run("m-1", "a.wav"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
}

func TestProcessPublishFailureIsNotFatal(t *testing.T) {
	f := newProcessFixture()
	f.publisher.err = errors.New("nats down")

	if _, err := f.run("m-1", "a.wav"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
}
