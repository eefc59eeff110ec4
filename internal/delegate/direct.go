package delegate

import (
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/hardware"
	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/worker"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// Direct applies operations to an in-process strip through the same dispatch
// the worker uses. It needs no privileged process and is meant for local
// development.
type Direct struct {
	server *worker.Server
}

// NewDirect creates a direct delegate. A nil factory builds simulated strips
// that log each frame.
func NewDirect(factory worker.StripFactory, logger hclog.Logger) *Direct {
	logger = logging.OrNull(logger).Named("delegate.direct")
	if factory == nil {
		factory = worker.NewStripFactory(hardware.Options{Simulate: true, Logger: logger})
	}
	return &Direct{server: worker.NewServer(factory, logger)}
}

func (d *Direct) Init(cfg wire.InitConfig) error {
	return d.server.Apply(wire.Init(cfg))
}

func (d *Direct) Show() error {
	return d.server.Apply(wire.Show())
}

func (d *Direct) Fill(c pixel.Color) error {
	return d.server.Apply(wire.Fill(toWire(c)))
}

func (d *Direct) SetItem(index int, c pixel.Color) error {
	return d.server.Apply(wire.Pixel(index, toWire(c)))
}

func (d *Direct) GetItem(index int) (pixel.Color, error) {
	return d.server.Pixel(index)
}

func (d *Direct) SetBrightness(v float64) error {
	return d.server.Apply(wire.Brightness(v))
}

func (d *Direct) Brightness() (float64, error) {
	return d.server.Brightness()
}

// Close releases the strip.
func (d *Direct) Close() error {
	return d.server.Close()
}
