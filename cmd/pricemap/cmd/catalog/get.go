package catalog

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/output"
)

// NewGetCommand creates the get command.
func NewGetCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "get KEY",
		GroupID: "core",
		Short:   "Show one record from the catalog file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			record, err := client.Get(args[0])
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.Record(record))
		},
	}
}
