package pixel

import (
	"errors"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff008000", RGBW(255, 0, 128, 0)},
		{"#ffffff", RGBW(255, 255, 255, 0)},
		{"#00ffff00", RGBW(0, 255, 255, 0)},
		{"#000000ff", RGBW(0, 0, 0, 255)},
		{"12345678", RGBW(0x12, 0x34, 0x56, 0x78)},
		{"#f", RGBW(0xf0, 0, 0, 0)},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if err != nil {
			t.Errorf("ParseHex(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"#ff00ff00ff", "#zzzzzz", "#12 456"} {
		if _, err := ParseHex(in); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("ParseHex(%q) error = %v, want ErrInvalidColor", in, err)
		}
	}
}

func TestParseColorNamed(t *testing.T) {
	got, err := ParseColor("Orange")
	if err != nil {
		t.Fatalf("ParseColor error = %v", err)
	}
	if got != RGBW(255, 165, 0, 0) {
		t.Errorf("ParseColor(Orange) = %v", got)
	}

	got, err = ParseColor("#ff008000")
	if err != nil || got != RGBW(255, 0, 128, 0) {
		t.Errorf("ParseColor(hex) = %v, %v", got, err)
	}

	if _, err := ParseColor("not-a-colour"); err == nil {
		t.Error("Expected error for unknown colour")
	}
}

func TestColorHex(t *testing.T) {
	c := RGBW(255, 0, 128, 1)
	if got := c.Hex(); got != "#ff008001" {
		t.Errorf("Hex() = %q", got)
	}
	back, err := ParseHex(c.Hex())
	if err != nil || back != c {
		t.Errorf("ParseHex(Hex()) = %v, %v", back, err)
	}
}

func TestParseOrder(t *testing.T) {
	for _, in := range []string{"rgb", "GRB", "RgbW", " GRBW "} {
		if _, err := ParseOrder(in); err != nil {
			t.Errorf("ParseOrder(%q) error = %v", in, err)
		}
	}
	if _, err := ParseOrder("BGR"); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}
	if OrderGRBW.BytesPerPixel() != 4 || OrderGRB.BytesPerPixel() != 3 {
		t.Error("unexpected bytes per pixel")
	}
	if DefaultOrder(4) != OrderGRBW || DefaultOrder(3) != OrderGRB {
		t.Error("unexpected default orders")
	}
}
