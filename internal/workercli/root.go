// Package workercli provides the neopixeld command: the privileged worker
// that owns the strip and serves the wire protocol.
package workercli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/neopixel/internal/hardware"
	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/security"
	"github.com/jmylchreest/neopixel/internal/version"
	"github.com/jmylchreest/neopixel/internal/worker"
)

const binaryName = "neopixeld"

// Options are the neopixeld flags.
type Options struct {
	LogPath     string
	MaxLogBytes int64
	SocketPath  string
	HTTPAddr    string
	Simulate    bool
	Chip        string
	SPIDevice   string
	SPISpeed    int
	Verbose     bool
	LogLevel    string
	JSONLogs    bool
}

// AddFlags registers the options on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.LogPath, "log", "l", logging.DefaultWorkerLogPath, "log file (also written to stdout)")
	fs.Int64Var(&o.MaxLogBytes, "log-max-bytes", logging.DefaultMaxFileSize, "rotate the log file past this size (0 disables)")
	fs.StringVar(&o.SocketPath, "socket", worker.DefaultSocketPath, "Unix socket to serve")
	fs.StringVar(&o.HTTPAddr, "http", "", "also serve the HTTP endpoint on this address, e.g. :8150")
	fs.BoolVar(&o.Simulate, "simulate", false, "log frames instead of driving the strip")
	fs.StringVar(&o.Chip, "chip", hardware.DefaultChip, "GPIO chip used to resolve pins")
	fs.StringVar(&o.SPIDevice, "spi", "", "SPI device (default: derived from the pin)")
	fs.IntVar(&o.SPISpeed, "spi-speed", hardware.DefaultSPISpeed, "SPI clock in Hz")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&o.JSONLogs, "json-logs", false, "log in JSON format")
}

// Validate checks the paths handed to the worker.
func (o *Options) Validate() error {
	if err := security.ValidateAbsPath(o.SocketPath); err != nil {
		return fmt.Errorf("--socket: %w", err)
	}
	if o.LogPath != "" {
		if err := security.ValidateAbsPath(o.LogPath); err != nil {
			return fmt.Errorf("--log: %w", err)
		}
	}
	if o.SPIDevice != "" {
		if err := security.ValidateAbsPath(o.SPIDevice); err != nil {
			return fmt.Errorf("--spi: %w", err)
		}
	}
	return nil
}

// NewRootCmd builds the neopixeld command.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   binaryName,
		Short: "Privileged NeoPixel worker",
		Long: `neopixeld owns the LED strip and applies newline-delimited JSON messages
received on a Unix socket:

  {"init": {"pin": 10, "n": 24, "pixel_order": "GRBW"}}
  {"fill": [r, g, b, w]}
  {"pixel": [index, [r, g, b, w]]}
  {"brightness": 0.5}
  {"show": ""}

An empty line (or any line not starting with '{') ends the client session.
It is normally started by neopixelctl through sudo.`,
		Version:      version.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, opts, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate(version.String(binaryName) + "\n")
	opts.AddFlags(cmd.Flags())
	return cmd
}

// Run serves until ctx is cancelled or the socket server fails. Failing to
// bind the socket is the only fatal startup error.
func Run(ctx context.Context, opts *Options, stdout io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	output := stdout
	if opts.LogPath != "" {
		f, err := logging.OpenFile(opts.LogPath, opts.MaxLogBytes)
		if err != nil {
			return err
		}
		defer f.Close()
		output = io.MultiWriter(stdout, f)
	}

	logger, err := logging.New(logging.Options{
		Name:    binaryName,
		Level:   opts.LogLevel,
		Verbose: opts.Verbose,
		JSON:    opts.JSONLogs,
		Output:  output,
	})
	if err != nil {
		return err
	}

	factory := worker.NewStripFactory(hardware.Options{
		Simulate:  opts.Simulate,
		Chip:      opts.Chip,
		SPIDevice: opts.SPIDevice,
		SPISpeed:  opts.SPISpeed,
		Logger:    logger.Named("hardware"),
	})
	server := worker.NewServer(factory, logger)
	if err := server.Listen(opts.SocketPath); err != nil {
		return err
	}
	defer server.Close()

	logger.Info("worker started", "version", version.Version, "pid", os.Getpid(), "simulate", opts.Simulate)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The HTTP endpoint is optional: losing it is logged and the socket
	// keeps serving.
	if opts.HTTPAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ListenAndServeHTTP(ctx, opts.HTTPAddr); err != nil {
				logger.Error("http endpoint stopped", "addr", opts.HTTPAddr, "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- server.Serve(ctx) }()

	return waitForExit(ctx, errc, logger)
}

func waitForExit(ctx context.Context, errc <-chan error, logger hclog.Logger) error {
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}
