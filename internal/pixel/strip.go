package pixel

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrIndexOutOfRange is returned when an index falls outside the strip after
// negative-index resolution.
var ErrIndexOutOfRange = errors.New("pixel index out of range")

// Sink receives encoded frames when a strip is shown.
type Sink interface {
	// Write pushes one frame (channel-ordered, brightness-scaled bytes) to
	// the physical bus.
	Write(frame []byte) error
}

// Options configures a new Strip.
type Options struct {
	// Brightness is the initial brightness, clamped to [0, 1].
	Brightness float64

	// AutoWrite makes every Fill and Set call Show afterwards.
	AutoWrite bool

	// Order is the channel order used when encoding frames.
	// Defaults to GRB.
	Order Order

	// Sink receives frames on Show. A nil sink discards them.
	Sink Sink
}

// Strip is the colour state of a fixed-length LED strip.
//
// Stored pixel values are never scaled by brightness; brightness is applied
// only when a frame is encoded. A Strip is not safe for concurrent use.
type Strip struct {
	pixels     []Color
	brightness float64
	autoWrite  bool
	order      Order
	sink       Sink
}

// NewStrip creates a strip of n pixels, all off.
func NewStrip(n int, opts Options) (*Strip, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", n)
	}

	order := opts.Order
	if order == "" {
		order = OrderGRB
	}
	if _, err := ParseOrder(string(order)); err != nil {
		return nil, err
	}

	return &Strip{
		pixels:     make([]Color, n),
		brightness: clampUnit(opts.Brightness),
		autoWrite:  opts.AutoWrite,
		order:      order,
		sink:       opts.Sink,
	}, nil
}

// Len returns the number of pixels.
func (s *Strip) Len() int {
	return len(s.pixels)
}

// Order returns the channel order.
func (s *Strip) Order() Order {
	return s.order
}

// AutoWrite reports whether mutations flush immediately.
func (s *Strip) AutoWrite() bool {
	return s.autoWrite
}

// Brightness returns the current brightness in [0, 1].
func (s *Strip) Brightness() float64 {
	return s.brightness
}

// SetBrightness sets the brightness used by the next Show. Values are clamped
// to [0, 1]. Already-set pixel values are not touched.
func (s *Strip) SetBrightness(v float64) {
	s.brightness = clampUnit(v)
}

// Fill sets every pixel to c.
func (s *Strip) Fill(c Color) error {
	for i := range s.pixels {
		s.pixels[i] = c
	}
	return s.autoShow()
}

// Set sets the pixel at index to c. A negative index counts from the end,
// resolved exactly once.
func (s *Strip) Set(index int, c Color) error {
	i, err := s.resolve(index)
	if err != nil {
		return err
	}
	s.pixels[i] = c
	return s.autoShow()
}

// SetRange assigns colors to the pixels selected by start:stop:step. The
// number of colours must match the number of selected pixels.
func (s *Strip) SetRange(start, stop, step int, colors []Color) error {
	indices, err := SliceIndices(start, stop, step, len(s.pixels))
	if err != nil {
		return err
	}
	if len(indices) != len(colors) {
		return fmt.Errorf("slice selects %d pixels but %d colors were given", len(indices), len(colors))
	}
	for i, idx := range indices {
		s.pixels[idx] = colors[i]
	}
	return s.autoShow()
}

// Get returns the pixel at index, resolving a negative index once.
func (s *Strip) Get(index int) (Color, error) {
	i, err := s.resolve(index)
	if err != nil {
		return Color{}, err
	}
	return s.pixels[i], nil
}

// Range returns the pixels selected by start:stop:step.
func (s *Strip) Range(start, stop, step int) ([]Color, error) {
	indices, err := SliceIndices(start, stop, step, len(s.pixels))
	if err != nil {
		return nil, err
	}
	out := make([]Color, 0, len(indices))
	for _, idx := range indices {
		out = append(out, s.pixels[idx])
	}
	return out, nil
}

// Pixels returns a copy of every pixel.
func (s *Strip) Pixels() []Color {
	out := make([]Color, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// Frame encodes the strip in channel order with brightness applied.
func (s *Strip) Frame() []byte {
	frame := make([]byte, 0, len(s.pixels)*s.order.BytesPerPixel())
	for _, c := range s.pixels {
		frame = s.order.appendColor(frame, scale(c, s.brightness))
	}
	return frame
}

// Show flushes the current state to the sink.
func (s *Strip) Show() error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.Write(s.Frame()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close releases the sink if it holds resources.
func (s *Strip) Close() error {
	if closer, ok := s.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Strip) autoShow() error {
	if !s.autoWrite {
		return nil
	}
	return s.Show()
}

func (s *Strip) resolve(index int) (int, error) {
	i := index
	if i < 0 {
		i += len(s.pixels)
	}
	if i < 0 || i >= len(s.pixels) {
		return 0, fmt.Errorf("%w: %d (strip has %d pixels)", ErrIndexOutOfRange, index, len(s.pixels))
	}
	return i, nil
}

func scale(c Color, brightness float64) Color {
	if brightness >= 1 {
		return c
	}
	return Color{
		R: uint8(float64(c.R) * brightness),
		G: uint8(float64(c.G) * brightness),
		B: uint8(float64(c.B) * brightness),
		W: uint8(float64(c.W) * brightness),
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
