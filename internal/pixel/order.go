package pixel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrder is returned for an unknown channel order.
var ErrInvalidOrder = errors.New("invalid pixel order")

// Order is the byte order in which channels are transmitted to the bus. It
// never affects how pixels are stored or addressed.
type Order string

const (
	// OrderRGB is red, green, blue.
	OrderRGB Order = "RGB"
	// OrderGRB is green, red, blue.
	OrderGRB Order = "GRB"
	// OrderRGBW is red, green, blue, white.
	OrderRGBW Order = "RGBW"
	// OrderGRBW is green, red, blue, white.
	OrderGRBW Order = "GRBW"
)

// Orders lists every supported order.
var Orders = []Order{OrderRGB, OrderGRB, OrderRGBW, OrderGRBW}

// ParseOrder parses an order name case-insensitively.
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Orders {
		if o == known {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of RGB, GRB, RGBW, GRBW)", ErrInvalidOrder, s)
}

// DefaultOrder returns the order a driver assumes when only the number of
// bytes per pixel is known.
func DefaultOrder(bpp int) Order {
	if bpp == 4 {
		return OrderGRBW
	}
	return OrderGRB
}

// BytesPerPixel is 4 for orders with a white channel, otherwise 3.
func (o Order) BytesPerPixel() int {
	if o.HasWhite() {
		return 4
	}
	return 3
}

// HasWhite reports whether the order carries a white channel.
func (o Order) HasWhite() bool {
	return strings.HasSuffix(string(o), "W")
}

// String implements fmt.Stringer.
func (o Order) String() string {
	return string(o)
}

// appendColor appends c to buf in this order.
func (o Order) appendColor(buf []byte, c Color) []byte {
	for _, ch := range string(o) {
		switch ch {
		case 'R':
			buf = append(buf, c.R)
		case 'G':
			buf = append(buf, c.G)
		case 'B':
			buf = append(buf, c.B)
		case 'W':
			buf = append(buf, c.W)
		}
	}
	return buf
}
