// Package cli provides the neopixelctl command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/neopixel/internal/config"
	"github.com/jmylchreest/neopixel/internal/controller"
	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/version"
)

const binaryName = "neopixelctl"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	logLevel   string
	jsonLogs   bool
}

func (o *globalOptions) logger() (hclog.Logger, error) {
	return logging.New(logging.Options{
		Name:    binaryName,
		Level:   o.logLevel,
		Verbose: o.verbose,
		JSON:    o.jsonLogs,
	})
}

// settings loads the settings file and applies NEOPIXEL_* overrides.
func (o *globalOptions) settings() (config.Settings, error) {
	return config.NewBuilder().
		WithFile(o.configPath).
		WithEnvConfig().
		Build()
}

// NewRootCmd builds the neopixelctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   binaryName,
		Short: "Control a NeoPixel strip through a privileged worker",
		Long: `neopixelctl drives an addressable LED strip that only a privileged process
can reach. It starts the neopixeld worker through sudo, talks to it over a
Unix socket (or HTTP), and turns M150 G-code commands into colour changes.

Settings are read from a YAML file and may be overridden with NEOPIXEL_*
environment variables, e.g. NEOPIXEL_NUM_PIXELS=60.`,
		Version:      version.Version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(version.String(binaryName) + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "settings file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.jsonLogs, "json-logs", false, "log in JSON format")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newColorCmd(opts),
		newBrightnessCmd(opts),
		newPixelCmd(opts),
		newGcodeCmd(opts),
		newSettingsCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String(binaryName))
		},
	}
}

// withController runs fn against a controller bound to an already running
// worker. The strip is initialised for the call and the connection closed
// afterwards; the worker itself is left running.
func withController(ctx context.Context, opts *globalOptions, fn func(*controller.Controller) error) error {
	logger, err := opts.logger()
	if err != nil {
		return err
	}
	s, err := opts.settings()
	if err != nil {
		return err
	}
	s.StartupColor = ""

	c := controller.NewBuilder().
		WithSettings(s).
		WithLogger(logger).
		Build()
	if err := c.Startup(ctx); err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	return fn(c)
}
