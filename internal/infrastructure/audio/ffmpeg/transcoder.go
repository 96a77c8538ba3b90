package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Transcoder converts uploads to mono 16 kHz signed 16-bit PCM WAV.
type Transcoder struct {
	binary string
}

func New(binary string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{binary: binary}
}

func (t *Transcoder) Check() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("%s not found: %w", t.binary, err)
	}
	return nil
}

func (t *Transcoder) ToPCM(ctx context.Context, srcPath, dstPath string) error {
	cmd := exec.CommandContext(ctx, t.binary,
		"-y",
		"-i", srcPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dstPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("converting audio: %w\n%s", err, tail(string(out), 1024))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
