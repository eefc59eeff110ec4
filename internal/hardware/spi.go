package hardware

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// DefaultSPISpeed clocks three SPI bits per WS2812 bit (800 kHz * 3).
	DefaultSPISpeed = 2_400_000

	// spiIOCWrMaxSpeedHz is _IOW('k', 4, __u32).
	spiIOCWrMaxSpeedHz = 0x40046b04

	// resetBytes keeps the line low for >80µs at DefaultSPISpeed.
	resetBytes = 30
)

// SPIWriter streams WS2812-encoded frames to an spidev device.
type SPIWriter struct {
	path string
	file *os.File
}

// OpenSPI opens the spidev device and sets its clock.
func OpenSPI(path string, speedHz int) (*SPIWriter, error) {
	if speedHz <= 0 {
		speedHz = DefaultSPISpeed
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := unix.IoctlSetPointerInt(int(f.Fd()), spiIOCWrMaxSpeedHz, speedHz); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set SPI speed on %s: %w", path, err)
	}

	return &SPIWriter{path: path, file: f}, nil
}

// Write encodes frame and writes it in a single transfer.
func (w *SPIWriter) Write(frame []byte) error {
	if _, err := w.file.Write(EncodeWS2812(frame)); err != nil {
		return fmt.Errorf("failed to write to %s: %w", w.path, err)
	}
	return nil
}

// Close closes the device.
func (w *SPIWriter) Close() error {
	return w.file.Close()
}

// EncodeWS2812 expands every data bit into three SPI bits (1 -> 110,
// 0 -> 100) and appends a low reset period.
func EncodeWS2812(frame []byte) []byte {
	out := make([]byte, 0, len(frame)*3+resetBytes)

	var acc uint32
	var bits uint
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			symbol := uint32(0b100)
			if b&(1<<uint(i)) != 0 {
				symbol = 0b110
			}
			acc = acc<<3 | symbol
			bits += 3
			for bits >= 8 {
				bits -= 8
				out = append(out, byte(acc>>bits))
			}
		}
	}

	return append(out, make([]byte, resetBytes)...)
}
