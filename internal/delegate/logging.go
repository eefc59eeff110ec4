package delegate

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// Logging records every call and never fails. It is the fallback when no
// other backend is configured.
type Logging struct {
	logger hclog.Logger

	mu         sync.Mutex
	brightness float64
}

// NewLogging creates a logging delegate.
func NewLogging(logger hclog.Logger) *Logging {
	return &Logging{
		logger:     logging.OrNull(logger).Named("delegate.logging"),
		brightness: wire.DefaultBrightness,
	}
}

func (l *Logging) Init(cfg wire.InitConfig) error {
	cfg = cfg.WithDefaults()
	l.mu.Lock()
	l.brightness = *cfg.Brightness
	l.mu.Unlock()

	l.logger.Info("init", "pin", cfg.Pin, "pixels", cfg.NumPixels, "brightness", *cfg.Brightness,
		"auto_write", *cfg.AutoWrite, "pixel_order", cfg.PixelOrder)
	return nil
}

func (l *Logging) Show() error {
	l.logger.Info("show")
	return nil
}

func (l *Logging) Fill(c pixel.Color) error {
	l.logger.Info("fill", "color", c.Hex())
	return nil
}

func (l *Logging) SetItem(index int, c pixel.Color) error {
	l.logger.Info("set item", "index", index, "color", c.Hex())
	return nil
}

// GetItem always reports black. Read-backs are logged at debug since status
// polling calls them often.
func (l *Logging) GetItem(index int) (pixel.Color, error) {
	l.logger.Debug("get item", "index", index)
	return pixel.Black, nil
}

func (l *Logging) SetBrightness(v float64) error {
	l.mu.Lock()
	l.brightness = v
	l.mu.Unlock()

	l.logger.Info("set brightness", "brightness", v)
	return nil
}

// Brightness returns the last brightness set.
func (l *Logging) Brightness() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Debug("get brightness", "brightness", l.brightness)
	return l.brightness, nil
}

func (l *Logging) Close() error {
	l.logger.Debug("close")
	return nil
}
