package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/cmd/pricemap/cmd/catalog"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/refresh"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/runs"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/serve"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/version"
	"github.com/agentstation/pricemap/internal/cmd/output"
)

// flags holds the persistent flag values until setupCommand applies them.
type flags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	output     string
	logLevel   string
	dataFile   string
	providers  []string
}

// Execute runs the pricemap CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:     "pricemap",
		Short:   "AI provider pricing catalog",
		Version: a.version,
		Long: `pricemap collects pricing from AI providers into one catalog.

It scrapes provider pricing pages and APIs, merges the results in a fixed
provider order, keeps the last good catalog on disk, and serves it over
HTTP with periodic refreshes.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(f)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file (default is $HOME/.pricemap.yaml)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&f.output, "output", "o", "", "output format: table, json, yaml")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.StringVar(&f.dataFile, "data-file", "", "catalog file (default is "+a.config.DataFile+")")
	pf.StringSliceVar(&f.providers, "providers", nil, "only use these providers, in registration order (default all)")

	rootCmd.SetVersionTemplate("pricemap {{.Version}}\n")

	rootCmd.AddCommand(
		serve.NewCommand(a),
		refresh.NewCommand(a),
		catalog.NewListCommand(a),
		catalog.NewGetCommand(a),
		runs.NewCommand(a),
		version.NewCommand(a),
	)

	return rootCmd
}

// setupCommand reloads configuration if --config was given, applies flag
// values and rebuilds the logger.
func (a *App) setupCommand(f *flags) error {
	if f.configFile != "" {
		cfg, err := LoadConfig(f.configFile)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	if _, err := output.ParseFormat(f.output); err != nil {
		return err
	}

	a.config.UpdateFromFlags(f.verbose, f.quiet, f.noColor, f.output, f.logLevel, f.dataFile)
	if len(f.providers) > 0 {
		a.config.Providers = f.providers
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitOnError prints err and exits with status 1. A nil err is a no-op.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
