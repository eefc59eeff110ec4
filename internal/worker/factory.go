package worker

import (
	"fmt"
	"io"

	"github.com/jmylchreest/neopixel/internal/hardware"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// ResolveOrder picks the channel order for an init payload: an explicit
// pixel_order wins, otherwise it follows bpp.
func ResolveOrder(cfg wire.InitConfig) (pixel.Order, error) {
	if cfg.PixelOrder != "" {
		order, err := pixel.ParseOrder(cfg.PixelOrder)
		if err != nil {
			return "", err
		}
		if cfg.BytesPerPixel != 0 && cfg.BytesPerPixel != order.BytesPerPixel() {
			return "", fmt.Errorf("bpp %d does not match pixel order %s", cfg.BytesPerPixel, order)
		}
		return order, nil
	}

	switch cfg.BytesPerPixel {
	case 0, 3, 4:
		return pixel.DefaultOrder(cfg.BytesPerPixel), nil
	default:
		return "", fmt.Errorf("unsupported bpp %d", cfg.BytesPerPixel)
	}
}

// NewStripFactory returns a factory that binds each new strip to the bus
// described by opts.
func NewStripFactory(opts hardware.Options) StripFactory {
	return func(cfg wire.InitConfig) (*pixel.Strip, error) {
		cfg = cfg.WithDefaults()

		if cfg.NumPixels <= 0 {
			return nil, fmt.Errorf("pixel count must be positive, got %d", cfg.NumPixels)
		}

		order, err := ResolveOrder(cfg)
		if err != nil {
			return nil, err
		}

		sink, err := hardware.Open(cfg.Pin, order, opts)
		if err != nil {
			return nil, err
		}

		strip, err := pixel.NewStrip(cfg.NumPixels, pixel.Options{
			Brightness: *cfg.Brightness,
			AutoWrite:  *cfg.AutoWrite,
			Order:      order,
			Sink:       sink,
		})
		if err != nil {
			if closer, ok := sink.(io.Closer); ok {
				closer.Close()
			}
			return nil, err
		}
		return strip, nil
	}
}
