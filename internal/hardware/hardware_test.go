package hardware

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/pixel"
)

func TestEncodeWS2812(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  []byte
	}{
		{"all ones", []byte{0xff}, []byte{0xdb, 0x6d, 0xb6}},
		{"all zeros", []byte{0x00}, []byte{0x92, 0x49, 0x24}},
		{"two bytes", []byte{0xff, 0x00}, []byte{0xdb, 0x6d, 0xb6, 0x92, 0x49, 0x24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeWS2812(tt.frame)
			if len(got) != len(tt.want)+resetBytes {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want)+resetBytes)
			}
			if !bytes.Equal(got[:len(tt.want)], tt.want) {
				t.Errorf("data = % x, want % x", got[:len(tt.want)], tt.want)
			}
			if !bytes.Equal(got[len(tt.want):], make([]byte, resetBytes)) {
				t.Error("reset period is not low")
			}
		})
	}
}

func TestSPIDeviceForPin(t *testing.T) {
	dev, err := SPIDeviceForPin(10)
	if err != nil || dev != "/dev/spidev0.0" {
		t.Errorf("SPIDeviceForPin(10) = %q, %v", dev, err)
	}
	if _, err := SPIDeviceForPin(18); !errors.Is(err, ErrUnsupportedPin) {
		t.Errorf("Expected ErrUnsupportedPin, got %v", err)
	}
}

func TestResolvePinRejectsNegative(t *testing.T) {
	if _, err := ResolvePin("", -1); err == nil {
		t.Error("Expected error for negative pin")
	}
}

func TestOpenSimulated(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Info})

	sink, err := Open(10, pixel.OrderGRBW, Options{Simulate: true, Logger: logger})
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}

	strip, err := pixel.NewStrip(2, pixel.Options{Brightness: 1, Order: pixel.OrderGRBW, Sink: sink})
	if err != nil {
		t.Fatalf("NewStrip error = %v", err)
	}
	_ = strip.Fill(pixel.RGBW(0, 255, 255, 0))
	if err := strip.Show(); err != nil {
		t.Fatalf("Show error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "show") || !strings.Contains(out, "ff00ff00") {
		t.Errorf("expected GRBW-ordered frame in log, got %q", out)
	}
}
