package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/developr-99/notes-generator-llm-app/internal/bootstrap"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/audio/ffmpeg"
	"github.com/developr-99/notes-generator-llm-app/internal/infrastructure/prompts"
)

var errChecksFailed = errors.New("some prerequisites are missing")

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg, Ollama, Whisper and the database are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cfg := deps.Config
			w := cmd.OutOrStdout()
			ok := true

			ok = check(w, "ffmpeg", ffmpeg.New(cfg.FFmpegBinary).Check(), cfg.FFmpegBinary) && ok

			llm := bootstrap.NewLLMClient(cfg, nil)
			ok = check(w, "ollama", llm.Ping(ctx), fmt.Sprintf("%s (model %s)", cfg.OllamaURL, cfg.OllamaGenModel)) && ok

			_, err := bootstrap.LoadTranscriber(ctx, cfg)
			ok = check(w, "whisper", err, cfg.WhisperBackend+" backend loaded") && ok

			_, db, err := bootstrap.OpenRepository(ctx, cfg)
			if err == nil {
				_ = db.Close()
			}
			ok = check(w, "database", err, cfg.DBDriver) && ok

			set, err := prompts.Load(cfg.PromptSet, cfg.PromptsFile)
			detail := ""
			if err == nil {
				detail = fmt.Sprintf("%s (%d sections)", set.Name(), len(set.Sections()))
			}
			ok = check(w, "prompts", err, detail) && ok

			if !ok {
				fmt.Fprintln(w, "\nSome prerequisites are missing.")
				return errChecksFailed
			}
			fmt.Fprintln(w, "\nAll prerequisites met.")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall time budget for the checks")
	return cmd
}
