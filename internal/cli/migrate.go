package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/developr-99/notes-generator-llm-app/internal/bootstrap"
)

func NewMigrateCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the meetings schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap.OpenRepository(cmd.Context(), deps.Config)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", deps.Config.DBDriver)
			return nil
		},
	}
}
