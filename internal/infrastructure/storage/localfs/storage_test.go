package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

func TestStorageSaveOpenRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "job.mp3", strings.NewReader("audio")))
	assert.FileExists(t, store.Path("job.mp3"))

	rc, err := store.Open(ctx, "job.mp3")
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "audio", string(raw))

	require.NoError(t, store.Remove(ctx, "job.mp3"))
	require.NoError(t, store.Remove(ctx, "job.mp3"), "removing a missing key is a no-op")
	assert.NoFileExists(t, store.Path("job.mp3"))

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestStorageRejectsTraversalKeys(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.wav", "nested/file.wav", ".hidden"} {
		assert.Error(t, store.Save(context.Background(), key, strings.NewReader("x")), "key %q", key)
	}
}

func TestArtifactStoreRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	artifacts := NewArtifactStore(store)
	ctx := context.Background()

	in := domain.ProcessingResult{
		Transcript:    "hello",
		WordCount:     1,
		AnalysisDepth: domain.AnalysisDepthConciseFactual,
		SessionID:     "s-1",
		GeneratedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, artifacts.SaveResult(ctx, "s-1", in))
	assert.FileExists(t, store.Path("meeting_notes_s-1.json"))

	out, err := artifacts.LoadResult(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestArtifactStoreMissingSession(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = NewArtifactStore(store).LoadResult(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrArtifactNotFound))
	assert.Equal(t, "Meeting notes not found", domain.Message(err))

	_, err = NewArtifactStore(store).LoadResult(context.Background(), "../etc")
	assert.True(t, domain.IsKind(err, domain.ErrArtifactNotFound))
}
