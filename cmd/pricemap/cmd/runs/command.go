// Package runs provides the run history command.
package runs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/pkg/constants"
)

// NewCommand creates the runs command.
func NewCommand(app application.Application) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "runs",
		GroupID: "core",
		Short:   "Show recent refresh runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.History()
			if err != nil {
				return err
			}
			if db == nil {
				return fmt.Errorf("run history is disabled (set history_db)")
			}

			entries, err := db.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.Runs(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", constants.DefaultHistoryLimit, "number of runs to show")
	return cmd
}
