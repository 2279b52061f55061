// Package catalog provides commands that read the persisted catalog.
package catalog

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// NewListCommand creates the list command.
func NewListCommand(app application.Application) *cobra.Command {
	var serviceType, provider string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: "core",
		Short:   "List records from the catalog file",
		Example: `  pricemap list
  pricemap list --provider openai
  pricemap list --service-type subscription -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			records := client.List(pricing.Filter{
				ServiceType: pricing.ServiceType(serviceType),
				ProviderID:  pricing.ProviderID(provider),
			})

			format := output.DetectFormat(app.OutputFormat())
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.Records(records))
		},
	}

	cmd.Flags().StringVar(&serviceType, "service-type", "", "filter by service type (api_endpoint, subscription, server_rental, other_service)")
	cmd.Flags().StringVar(&provider, "provider", "", "filter by provider ID")
	return cmd
}
