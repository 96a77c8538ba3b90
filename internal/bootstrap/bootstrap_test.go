package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developr-99/notes-generator-llm-app/internal/config"
	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

func degradedConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DSN", filepath.Join(dir, "db", "meetings.db"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("AUDIO_DIR", filepath.Join(dir, "audio"))
	t.Setenv("ARTIFACT_DIR", filepath.Join(dir, "outputs"))
	t.Setenv("OLLAMA_URL", "http://127.0.0.1:1")
	t.Setenv("OLLAMA_PROBE_TIMEOUT", "200ms")
	t.Setenv("WHISPER_URL", "http://127.0.0.1:1/v1")
	t.Setenv("WHISPER_REQUIRED", "false")

	cfg, err := config.Load(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	return cfg
}

func TestNewStartsDegradedWithoutDependencies(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, degradedConfig(t))
	require.NoError(t, err)
	defer app.Close()

	health := app.Health.Health(ctx)
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.WhisperLoaded)
	assert.False(t, health.OllamaConnected)

	created, err := app.Meetings.Create(ctx, domain.NewMeeting{
		Title:        "Kickoff",
		Participants: []domain.Participant{{Name: "Ann"}, {Name: ""}},
		Tags:         []string{"q3"},
	})
	require.NoError(t, err)

	got, err := app.Meetings.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", got.Title)
	assert.Len(t, got.Participants, 1)
	assert.Equal(t, []string{"q3"}, got.Tags)

	_, err = app.Processor.Process(ctx, domain.ProcessRequest{MeetingID: created.ID, Filename: "a.mp3"})
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput), "missing body is rejected before any dependency check")
}

func TestNewFailsWhenWhisperRequired(t *testing.T) {
	cfg := degradedConfig(t)
	cfg.WhisperRequired = true

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load whisper")
}

func TestNewRejectsUnknownPromptSet(t *testing.T) {
	cfg := degradedConfig(t)
	cfg.PromptSet = "verbose"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load prompts")
}
