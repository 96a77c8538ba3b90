package localfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

// ArtifactStore keeps processing results as meeting_notes_<session>.json files.
type ArtifactStore struct {
	files *Storage
}

func NewArtifactStore(files *Storage) *ArtifactStore {
	return &ArtifactStore{files: files}
}

func artifactKey(sessionID string) string {
	return "meeting_notes_" + sessionID + ".json"
}

func (a *ArtifactStore) SaveResult(ctx context.Context, sessionID string, result domain.ProcessingResult) error {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := a.files.Save(ctx, artifactKey(sessionID), bytes.NewReader(body)); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (a *ArtifactStore) LoadResult(ctx context.Context, sessionID string) (*domain.ProcessingResult, error) {
	f, err := a.files.Open(ctx, artifactKey(sessionID))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("artifact_open_failed", "session_id", sessionID, "error", err.Error())
		}
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "load result "+sessionID, errors.New("Meeting notes not found"))
	}
	defer f.Close()

	var result domain.ProcessingResult
	if err := json.NewDecoder(f).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}
