// Package controller binds the configured settings to a delegate and exposes
// the operations the outside world calls: colour and brightness changes,
// G-code inspection, reconfiguration and shutdown.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/config"
	"github.com/jmylchreest/neopixel/internal/delegate"
	"github.com/jmylchreest/neopixel/internal/gcode"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/secret"
	"github.com/jmylchreest/neopixel/internal/supervisor"
	"github.com/jmylchreest/neopixel/internal/worker"
)

var (
	// ErrInvalidValue is returned for out-of-range API input.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotStarted is returned by operations called before Startup.
	ErrNotStarted = errors.New("controller not started")
)

// Controller owns the single delegate binding. All methods are safe for
// concurrent use.
type Controller struct {
	logger      hclog.Logger
	supervisor  *supervisor.Supervisor
	newDelegate DelegateFactory
	strips      worker.StripFactory
	socketWait  time.Duration

	mu       sync.Mutex
	settings config.Settings
	kind     delegate.Kind
	bound    delegate.Delegate
	hook     gcode.Hook
}

// Status is a snapshot for display.
type Status struct {
	Settings   config.Settings
	Backend    delegate.Kind
	Worker     *supervisor.Handle
	Brightness float64
}

// Startup validates the settings, starts the worker when the socket backend
// is enabled, binds the delegate and shows the startup colour.
func (c *Controller) Startup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.settings.Validate(); err != nil {
		return err
	}
	c.takeCredential(&c.settings)

	if err := c.bind(ctx, c.settings); err != nil {
		return err
	}

	if c.settings.Enabled {
		c.showStartupColour()
	}
	return nil
}

// Reconfigure applies new settings. Invalid settings are returned and the
// current binding is kept.
func (c *Controller) Reconfigure(ctx context.Context, s config.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.Validate(); err != nil {
		return err
	}
	c.takeCredential(&s)

	if err := c.bind(ctx, s); err != nil {
		return err
	}
	c.settings = s

	if s.Enabled {
		c.showStartupColour()
	}
	return nil
}

// Settings returns the current settings without the credential.
func (c *Controller) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Redacted()
}

// SetColor fills the strip with a hex or named colour and shows it.
func (c *Controller) SetColor(value string) error {
	col, err := pixel.ParseColor(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound == nil {
		return ErrNotStarted
	}

	c.report("fill", c.bound.Fill(col))
	c.report("show", c.bound.Show())
	return nil
}

// SetPixel sets one pixel to a hex or named colour and shows it.
func (c *Controller) SetPixel(index int, value string) error {
	col, err := pixel.ParseColor(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound == nil {
		return ErrNotStarted
	}

	c.report("set item", c.bound.SetItem(index, col))
	c.report("show", c.bound.Show())
	return nil
}

// SetBrightness sets the brightness (0 to 1) and shows it.
func (c *Controller) SetBrightness(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: brightness must be between 0 and 1, got %v", ErrInvalidValue, v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound == nil {
		return ErrNotStarted
	}

	c.report("set brightness", c.bound.SetBrightness(v))
	c.report("show", c.bound.Show())
	c.settings.Brightness = v
	return nil
}

// HandleGcode inspects one outgoing G-code line. It returns the line to send
// on to the printer, and consumed is true when the line was an LED command
// that must not be forwarded.
func (c *Controller) HandleGcode(line string) (forward string, consumed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.hook.Process(line)
	if !res.Handled || c.bound == nil {
		return line, false
	}

	c.logger.Debug("led command", "gcode", res.Command.String())
	c.report("gcode", res.Command.Apply(c.bound))
	return res.Forward, true
}

// Status returns the current state. The brightness is read from the
// backend when it supports it.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Settings:   c.settings.Redacted(),
		Backend:    c.kind,
		Brightness: c.settings.Brightness,
	}
	if c.supervisor != nil {
		if h, ok := c.supervisor.Handle(); ok {
			st.Worker = &h
		}
	}
	if c.bound != nil {
		if v, err := c.bound.Brightness(); err == nil {
			st.Brightness = v
		}
	}
	return st
}

// Shutdown closes the delegate and stops the worker.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bound != nil {
		c.report("close", c.bound.Close())
		c.bound = nil
	}
	if c.supervisor != nil {
		c.supervisor.Shutdown(ctx)
		if err := c.supervisor.Close(); err != nil {
			c.logger.Warn("failed to release credential", "error", err)
		}
	}
}

// bind replaces the delegate with one built for s. The old delegate is
// closed only once the new one exists.
func (c *Controller) bind(ctx context.Context, s config.Settings) error {
	kind, err := delegate.ParseKind(s.Backend)
	if err != nil {
		return err
	}
	if !s.Enabled {
		kind = delegate.KindLogging
	}

	if kind == delegate.KindSocket {
		c.ensureWorker(ctx, s)
	}

	d, err := c.newDelegate(kind, delegate.Options{
		Logger:     c.logger,
		SocketPath: s.SocketPath,
		HTTPURL:    s.HTTPURL,
		Factory:    c.strips,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s backend: %w", kind, err)
	}

	if c.bound != nil {
		c.report("close", c.bound.Close())
	}
	c.bound, c.kind = d, kind

	c.report("init", d.Init(s.InitConfig()))
	c.logger.Info("backend bound", "backend", kind, "pin", s.PixelPin, "pixels", s.NumPixels, "order", s.PixelOrder)
	return nil
}

// ensureWorker starts the worker if a supervisor is configured and waits
// for its socket. Failures are logged; the socket delegate then runs
// degraded.
func (c *Controller) ensureWorker(ctx context.Context, s config.Settings) {
	if c.supervisor == nil {
		return
	}
	if _, running := c.supervisor.Handle(); running {
		return
	}
	previous, _ := os.Stat(s.SocketPath)
	if err := c.supervisor.Start(ctx); err != nil {
		c.logger.Error("failed to start worker", "error", err)
		return
	}
	if err := waitForSocket(ctx, s.SocketPath, previous, c.socketWait); err != nil {
		c.logger.Warn("worker socket not ready", "socket", s.SocketPath, "error", err)
	}
}

// takeCredential moves the password out of s into the supervisor.
func (c *Controller) takeCredential(s *config.Settings) {
	if s.SudoPassword == "" {
		return
	}
	if c.supervisor != nil {
		buf, err := secret.NewFromString(s.SudoPassword)
		if err != nil {
			c.logger.Error("failed to store credential", "error", err)
		} else {
			c.supervisor.SetCredential(buf)
		}
	}
	s.SudoPassword = ""
}

func (c *Controller) showStartupColour() {
	col, ok, err := c.settings.StartupColour()
	if err != nil || !ok {
		return
	}
	c.report("fill", c.bound.Fill(col))
	c.report("show", c.bound.Show())
}

// report logs a delegate failure. Illumination is best effort so nothing is
// returned to the caller.
func (c *Controller) report(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, delegate.ErrNotConnected) || errors.Is(err, delegate.ErrUnavailable) {
		c.logger.Warn("backend unavailable", "op", op, "backend", c.kind, "error", err)
		return
	}
	c.logger.Error("backend operation failed", "op", op, "backend", c.kind, "error", err)
}

// waitForSocket polls until a socket other than previous exists at path.
func waitForSocket(ctx context.Context, path string, previous os.FileInfo, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		info, err := os.Stat(path)
		if err == nil && info.Mode()&os.ModeSocket != 0 && (previous == nil || !os.SameFile(previous, info)) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
