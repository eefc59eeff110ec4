package hardware

import (
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/pixel"
)

// Options selects how a strip reaches the bus.
type Options struct {
	// Simulate replaces the bus with a log sink.
	Simulate bool

	// Chip is the GPIO chip used to resolve pins.
	Chip string

	// SPIDevice overrides the device derived from the pin.
	SPIDevice string

	// SPISpeed is the SPI clock in Hz.
	SPISpeed int

	// Logger receives simulated frames and diagnostics.
	Logger hclog.Logger
}

// LogSink writes every frame to a logger instead of the bus.
type LogSink struct {
	logger hclog.Logger
	bpp    int
}

// NewLogSink creates a simulated sink. bpp groups the frame bytes per pixel
// in the log output.
func NewLogSink(logger hclog.Logger, bpp int) *LogSink {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if bpp <= 0 {
		bpp = 3
	}
	return &LogSink{logger: logger, bpp: bpp}
}

// Write logs the frame one pixel per group.
func (s *LogSink) Write(frame []byte) error {
	groups := make([]string, 0, len(frame)/s.bpp)
	for i := 0; i+s.bpp <= len(frame); i += s.bpp {
		groups = append(groups, hex.EncodeToString(frame[i:i+s.bpp]))
	}
	s.logger.Info("show", "pixels", len(groups), "frame", groups)
	return nil
}

// BusSink drives a strip through its SPI data line.
type BusSink struct {
	pin Pin
	spi *SPIWriter
}

// Pin returns the resolved pin.
func (b *BusSink) Pin() Pin {
	return b.pin
}

// Write sends the frame to the strip.
func (b *BusSink) Write(frame []byte) error {
	return b.spi.Write(frame)
}

// Close releases the SPI device.
func (b *BusSink) Close() error {
	return b.spi.Close()
}

// Open resolves pin and returns a sink for a strip with the given order.
func Open(pinNumber int, order pixel.Order, opts Options) (pixel.Sink, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if opts.Simulate {
		logger.Debug("using simulated strip", "pin", pinNumber, "order", order)
		return NewLogSink(logger, order.BytesPerPixel()), nil
	}

	pin, err := ResolvePin(opts.Chip, pinNumber)
	if err != nil {
		return nil, err
	}
	if pin.Used && pin.Consumer != "" {
		logger.Warn("pin is claimed by another consumer", "pin", pin.String(), "consumer", pin.Consumer)
	}

	device := opts.SPIDevice
	if device == "" {
		device, err = SPIDeviceForPin(pinNumber)
		if err != nil {
			return nil, err
		}
	}

	spi, err := OpenSPI(device, opts.SPISpeed)
	if err != nil {
		return nil, fmt.Errorf("failed to open bus for pin %s: %w", pin, err)
	}

	logger.Info("strip bus ready", "pin", pin.String(), "device", device, "order", order)
	return &BusSink{pin: pin, spi: spi}, nil
}
