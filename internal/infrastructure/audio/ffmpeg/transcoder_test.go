package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestToPCMPassesConversionFlags(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := fakeBinary(t, `echo "$@" > `+argsFile+"\n")

	if err := New(bin).ToPCM(context.Background(), "/in/a.mp3", "/out/a.wav"); err != nil {
		t.Fatalf("ToPCM() error = %v", err)
	}
	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.TrimSpace(string(raw))
	want := "-y -i /in/a.mp3 -ar 16000 -ac 1 -c:a pcm_s16le /out/a.wav"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestToPCMIncludesOutputOnFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")

	err := New(bin).ToPCM(context.Background(), "a.mp3", "a.wav")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
}

func TestCheckMissingBinary(t *testing.T) {
	if err := New(filepath.Join(t.TempDir(), "nope")).Check(); err == nil {
		t.Fatalf("expected missing binary error")
	}
}
