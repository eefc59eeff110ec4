package controller

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/config"
	"github.com/jmylchreest/neopixel/internal/delegate"
	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/supervisor"
	"github.com/jmylchreest/neopixel/internal/worker"
)

// DefaultSocketWait bounds how long Startup waits for a freshly started
// worker to create its socket.
const DefaultSocketWait = 5 * time.Second

// DelegateFactory constructs a delegate for a backend.
type DelegateFactory func(kind delegate.Kind, opts delegate.Options) (delegate.Delegate, error)

// Builder provides a fluent interface for constructing a Controller.
type Builder struct {
	settings    config.Settings
	logger      hclog.Logger
	supervisor  *supervisor.Supervisor
	newDelegate DelegateFactory
	strips      worker.StripFactory
	socketWait  time.Duration
}

// NewBuilder creates a builder with default settings.
func NewBuilder() *Builder {
	return &Builder{
		settings:    config.Defaults(),
		newDelegate: delegate.New,
		socketWait:  DefaultSocketWait,
	}
}

// WithSettings sets the initial settings.
func (b *Builder) WithSettings(s config.Settings) *Builder {
	b.settings = s
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger hclog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithSupervisor sets the worker supervisor. Without one the worker is
// expected to be running already.
func (b *Builder) WithSupervisor(s *supervisor.Supervisor) *Builder {
	b.supervisor = s
	return b
}

// WithDelegateFactory replaces delegate.New (useful for testing).
func (b *Builder) WithDelegateFactory(f DelegateFactory) *Builder {
	b.newDelegate = f
	return b
}

// WithStripFactory sets the factory used by the direct backend.
func (b *Builder) WithStripFactory(f worker.StripFactory) *Builder {
	b.strips = f
	return b
}

// WithSocketWait sets how long to wait for a started worker's socket.
func (b *Builder) WithSocketWait(d time.Duration) *Builder {
	b.socketWait = d
	return b
}

// Build constructs the Controller. Nothing is started until Startup.
func (b *Builder) Build() *Controller {
	c := &Controller{
		logger:      logging.OrNull(b.logger).Named("controller"),
		supervisor:  b.supervisor,
		newDelegate: b.newDelegate,
		strips:      b.strips,
		socketWait:  b.socketWait,
		settings:    b.settings,
	}
	c.hook.Enabled = func() bool { return c.settings.Enabled }
	c.hook.ParseGcode = func() bool { return c.settings.ParseGcode }
	return c
}
