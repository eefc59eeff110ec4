// Package hardware connects a pixel.Strip to the physical bus. It resolves the
// configured pin through the GPIO character device and streams frames to the
// SPI controller that drives the strip's data line.
package hardware

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// ErrUnsupportedPin is returned for a pin that has no SPI data line behind it.
var ErrUnsupportedPin = errors.New("pin cannot drive a pixel strip")

// DefaultChip is the GPIO chip holding the header pins on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// spiDevices maps BCM pin numbers wired to an SPI MOSI line onto the device
// that clocks them.
var spiDevices = map[int]string{
	10: "/dev/spidev0.0",
	20: "/dev/spidev1.0",
}

// Pin is a resolved GPIO line.
type Pin struct {
	Chip     string
	Offset   int
	Name     string
	Consumer string
	Used     bool
}

// String implements fmt.Stringer.
func (p Pin) String() string {
	if p.Name != "" {
		return fmt.Sprintf("%s:%d (%s)", p.Chip, p.Offset, p.Name)
	}
	return fmt.Sprintf("%s:%d", p.Chip, p.Offset)
}

// ResolvePin looks the pin up on the named chip without reconfiguring it, so
// a line already muxed to SPI keeps its function.
func ResolvePin(chip string, offset int) (Pin, error) {
	if chip == "" {
		chip = DefaultChip
	}
	if offset < 0 {
		return Pin{}, fmt.Errorf("invalid pin %d", offset)
	}

	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return Pin{}, fmt.Errorf("failed to open %s: %w", chip, err)
	}
	defer c.Close()

	if offset >= c.Lines() {
		return Pin{}, fmt.Errorf("pin %d out of range for %s (%d lines)", offset, chip, c.Lines())
	}

	info, err := c.LineInfo(offset)
	if err != nil {
		return Pin{}, fmt.Errorf("failed to read line info for pin %d: %w", offset, err)
	}

	return Pin{
		Chip:     chip,
		Offset:   offset,
		Name:     info.Name,
		Consumer: info.Consumer,
		Used:     info.Used,
	}, nil
}

// SPIDeviceForPin returns the SPI device wired to the pin.
func SPIDeviceForPin(offset int) (string, error) {
	dev, ok := spiDevices[offset]
	if !ok {
		return "", fmt.Errorf("%w: %d (supported: 10, 20)", ErrUnsupportedPin, offset)
	}
	return dev, nil
}
