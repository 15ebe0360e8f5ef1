package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/telemetry"
)

// Options holds the collaborators shared by every subcommand.
type Options struct {
	Out        io.Writer
	LoadConfig func() config.Config
	Build      func(config.Config) (*bootstrap.App, error)

	jsonOutput bool
	logLevel   string
	app        *bootstrap.App
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit string) error {
	opts := &Options{Out: os.Stdout, LoadConfig: config.Load, Build: bootstrap.Build}
	return NewRootCommand(opts, version, commit).ExecuteContext(ctx)
}

// NewRootCommand wires the subcommands against opts.
func NewRootCommand(opts *Options, version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "analysisctl",
		Short: "Run and enqueue picture analysis tasks",
		Long: `analysisctl runs edge detection, scaling and distortion against the picture
store configured in the environment (DATABASE_URL, PICTURE_DIR, ...).

Tasks run in-process by default. Pass --enqueue to hand them to the
configured SQS queue instead.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(opts.Out)

	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(newEdgeDetectCommand(opts))
	rootCmd.AddCommand(newScaleCommand(opts))
	rootCmd.AddCommand(newDistortCommand(opts))
	rootCmd.AddCommand(newChainCommand(opts))
	rootCmd.AddCommand(newRegisterCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newBrightnessCommand(opts))
	rootCmd.AddCommand(newSeedCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))

	return rootCmd
}

func (o *Options) config() config.Config {
	cfg := o.LoadConfig()
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

// App builds the application once per invocation.
func (o *Options) App() (*bootstrap.App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := o.Build(o.config())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if o.logLevel != "" {
		telemetry.SetLevel(o.logLevel)
	}
	o.app = app
	return app, nil
}
