package whisper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

// CommandTranscriber runs the whisper.cpp CLI on 16 kHz WAV input.
type CommandTranscriber struct {
	binary    string
	modelPath string
	language  string
}

func NewCommandTranscriber(opts Options) *CommandTranscriber {
	binary := opts.Binary
	if binary == "" {
		binary = "whisper-cli"
	}
	return &CommandTranscriber{
		binary:    binary,
		modelPath: opts.ModelPath,
		language:  opts.Language,
	}
}

func (t *CommandTranscriber) Load(context.Context) error {
	path, err := exec.LookPath(t.binary)
	if err != nil {
		return fmt.Errorf("whisper binary %q not found: %w", t.binary, err)
	}
	t.binary = path
	if t.modelPath == "" {
		return fmt.Errorf("whisper model path is not configured")
	}
	if _, err := os.Stat(t.modelPath); err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	return nil
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error) {
	args := []string{"-m", t.modelPath, "-f", audioPath, "-nt", "-np"}
	if t.language != "" {
		args = append(args, "-l", t.language)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper command: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}

	out := domain.Transcription{Text: joinLines(stdout.String())}
	duration, err := WAVDuration(audioPath)
	if err != nil {
		slog.Debug("wav_duration_unavailable", "path", audioPath, "error", err.Error())
	} else {
		out.Duration = duration
	}
	return out, nil
}

func joinLines(raw string) string {
	lines := strings.Split(raw, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
