package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/neopixel/internal/config"
	"github.com/jmylchreest/neopixel/internal/controller"
	"github.com/jmylchreest/neopixel/internal/delegate"
	"github.com/jmylchreest/neopixel/internal/secret"
	"github.com/jmylchreest/neopixel/internal/supervisor"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		input    string
		noPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the worker and filter G-code",
		Long: `Start the privileged worker (socket backend), bind the configured backend
and show the startup colour. G-code is then read line by line from --input:
M150 commands are applied to the strip and every other line is written to
stdout unchanged.

SIGHUP reloads the settings file. SIGINT or SIGTERM stops the worker and
exits.`,
		Example: `  # Filter a print job
  neopixelctl run --input part.gcode > filtered.gcode

  # Interactive, reading from the terminal
  neopixelctl run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			s, err := opts.settings()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sup, err := newSupervisor(s, logger)
			if err != nil {
				return err
			}
			if sup != nil && s.SudoPassword == "" && !noPrompt {
				promptCredential(sup, cmd.ErrOrStderr(), logger)
			}

			c := controller.NewBuilder().
				WithSettings(s).
				WithLogger(logger).
				WithSupervisor(sup).
				Build()
			if err := c.Startup(ctx); err != nil {
				if sup != nil {
					sup.Close()
				}
				return err
			}
			defer c.Shutdown(context.Background())

			r, closeInput, err := openInput(input)
			if err != nil {
				return err
			}
			defer closeInput()

			return filter(ctx, c, r, cmd.OutOrStdout(), func() {
				reload(ctx, c, opts, logger)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "G-code source (- for stdin)")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "never prompt for the sudo password")
	return cmd
}

// newSupervisor returns nil unless the enabled backend needs a local worker.
func newSupervisor(s config.Settings, logger hclog.Logger) (*supervisor.Supervisor, error) {
	kind, err := delegate.ParseKind(s.Backend)
	if err != nil {
		return nil, err
	}
	if kind != delegate.KindSocket || !s.Enabled {
		return nil, nil
	}

	sudo, err := supervisor.NewSudo(s.ElevationTool)
	if err != nil {
		return nil, err
	}
	sudo.Stderr = os.Stderr

	return supervisor.New(sudo, supervisor.Config{
		WorkerCommand: s.WorkerArgv(),
		LogPath:       s.WorkerLog,
		Logger:        logger,
	})
}

func promptCredential(sup *supervisor.Supervisor, out io.Writer, logger hclog.Logger) {
	buf, err := secret.Prompt(int(os.Stdin.Fd()), out, "sudo password: ")
	if errors.Is(err, secret.ErrNotTerminal) {
		logger.Warn("no sudo password configured", "hint", "set sudo_password or "+config.EnvName("sudo_password"))
		return
	}
	if err != nil {
		logger.Error("failed to read sudo password", "error", err)
		return
	}
	sup.SetCredential(buf)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path) // #nosec G304 - path is chosen by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// filter passes r through the G-code hook until r ends or ctx is done.
// onHangup is called for every SIGHUP.
func filter(ctx context.Context, c *controller.Controller, r io.Reader, w io.Writer, onHangup func()) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	out := bufio.NewWriter(w)
	defer out.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			onHangup()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if forward, consumed := c.HandleGcode(line); !consumed {
				fmt.Fprintln(out, forward)
				if err := out.Flush(); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}
	}
}

func reload(ctx context.Context, c *controller.Controller, opts *globalOptions, logger hclog.Logger) {
	s, err := opts.settings()
	if err != nil {
		logger.Error("failed to reload settings", "error", err)
		return
	}
	current := c.Settings()
	if s.SocketPath != current.SocketPath || s.WorkerLog != current.WorkerLog {
		logger.Warn("socket_path and worker_log changes take effect after a restart")
		s.SocketPath, s.WorkerLog = current.SocketPath, current.WorkerLog
	}
	if err := c.Reconfigure(ctx, s); err != nil {
		logger.Error("settings rejected, keeping previous configuration", "error", err)
		return
	}
	logger.Info("settings reloaded")
}
