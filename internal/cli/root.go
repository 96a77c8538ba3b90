package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/developr-99/notes-generator-llm-app/internal/config"
)

type Dependencies struct {
	Config config.Config
	Out    io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetingctl",
		Short:         "Operate the meeting notes service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(deps.Out)

	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewMigrateCmd(deps))

	return rootCmd
}

func check(w io.Writer, name string, err error, okDetail string) bool {
	if err != nil {
		fmt.Fprintf(w, "  FAIL %s: %v\n", name, err)
		return false
	}
	fmt.Fprintf(w, "  ok   %s: %s\n", name, okDetail)
	return true
}
