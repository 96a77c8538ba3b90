package whisper

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WAVDuration returns the playback length of the PCM data in a WAV file.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("not a pcm wav file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("locate pcm data: %w", err)
	}
	if dec.AvgBytesPerSec == 0 {
		return 0, errors.New("wav header has no byte rate")
	}
	return time.Duration(float64(dec.PCMLen()) / float64(dec.AvgBytesPerSec) * float64(time.Second)), nil
}
