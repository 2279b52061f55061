// Package refresh provides the one-shot refresh command.
package refresh

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/emoji"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/pkg/errors"
)

// NewCommand creates the refresh command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refresh",
		GroupID: "core",
		Short:   "Fetch prices from every provider once and publish the catalog",
		Long: `Refresh runs every provider adapter once, merges the results and writes
the catalog file. Providers that fail are listed in the report; the
catalog keeps the previous data when every provider fails.`,
		Example: `  pricemap refresh
  pricemap refresh -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			report, err := client.RefreshNow(cmd.Context())
			if err != nil {
				if errors.IsRefreshInProgress(err) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s a refresh is already running\n", emoji.Pending)
				}
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			if err := output.NewFormatter(format).Format(cmd.OutOrStdout(), output.Report{Report: report}); err != nil {
				return err
			}

			if format == output.FormatTable {
				status := client.Status()
				switch {
				case report.AllFailed():
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s every provider failed; catalog unchanged (%d records)\n", emoji.Error, status.Size)
				case len(report.Failed) > 0:
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s published %d records with %d provider failures\n", emoji.Warning, status.Size, len(report.Failed))
				default:
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s published %d records\n", emoji.Success, status.Size)
				}
			}
			return nil
		},
	}

	return cmd
}
