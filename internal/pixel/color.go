// Package pixel provides the in-memory model of an addressable LED strip:
// per-pixel colour state, brightness and channel ordering.
package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned when a colour string cannot be decoded.
var ErrInvalidColor = errors.New("invalid color")

// Color is the state of a single pixel. W is zero for strips without a
// white channel.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	W uint8 `json:"w"`
}

// Black turns a pixel off.
var Black = Color{}

// RGBW builds a Color from four channel values.
func RGBW(r, g, b, w uint8) Color {
	return Color{R: r, G: g, B: b, W: w}
}

// Tuple returns the channels in (R, G, B, W) order.
func (c Color) Tuple() [4]uint8 {
	return [4]uint8{c.R, c.G, c.B, c.W}
}

// Hex returns the colour as "#rrggbbww".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.W)
}

// String returns the colour as "(r, g, b, w)".
func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", c.R, c.G, c.B, c.W)
}

// ParseHex decodes "#RRGGBBWW". Shorter strings are right-padded with zero
// nibbles, so "#ffffff" is (255, 255, 255, 0). The leading '#' is optional.
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) > 8 {
		return Color{}, fmt.Errorf("%w: %q is longer than 8 hex digits", ErrInvalidColor, s)
	}
	hex += strings.Repeat("0", 8-len(hex))

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q is not hexadecimal", ErrInvalidColor, s)
	}

	return Color{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		W: uint8(v),
	}, nil
}

// ParseColor decodes a hex colour (see ParseHex) or a CSS colour name such as
// "orange". Named colours never set the white channel.
func ParseColor(s string) (Color, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "#") {
		return ParseHex(trimmed)
	}

	if named, ok := colornames.Map[strings.ToLower(trimmed)]; ok {
		return Color{R: named.R, G: named.G, B: named.B}, nil
	}

	return ParseHex(trimmed)
}
