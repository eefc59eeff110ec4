// Package wire defines the line protocol spoken between the control process
// and the privileged worker.
//
// Every message is a single JSON object terminated by '\n':
//
//	{"init": {"pin": 10, "n": 24, "pixel_order": "GRBW"}}
//	{"fill": [r, g, b, w]}
//	{"pixel": [index, [r, g, b, w]]}
//	{"brightness": 0.5}
//	{"show": ""}
//
// A line that is empty or does not start with '{' ends the session.
package wire

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a line cannot be decoded.
var ErrMalformed = errors.New("malformed message")

// Kind identifies one of the fixed message kinds.
type Kind int

const (
	// KindInit (re)configures the strip.
	KindInit Kind = iota + 1
	// KindFill sets every pixel.
	KindFill
	// KindPixel sets one pixel.
	KindPixel
	// KindBrightness sets the brightness.
	KindBrightness
	// KindShow flushes to the physical strip.
	KindShow
)

// Wire keys, in the order they are applied when several share one line.
const (
	KeyInit       = "init"
	KeyFill       = "fill"
	KeyPixel      = "pixel"
	KeyBrightness = "brightness"
	KeyShow       = "show"
)

var kindKeys = map[Kind]string{
	KindInit:       KeyInit,
	KindFill:       KeyFill,
	KindPixel:      KeyPixel,
	KindBrightness: KeyBrightness,
	KindShow:       KeyShow,
}

// Key returns the JSON key for the kind.
func (k Kind) Key() string {
	return kindKeys[k]
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if key, ok := kindKeys[k]; ok {
		return key
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Color is a pixel value as (R, G, B, W). A three-element colour on the wire
// decodes with W = 0.
type Color [4]uint8

// InitConfig is the payload of an init message.
type InitConfig struct {
	Pin           int      `json:"pin"`
	NumPixels     int      `json:"n"`
	Brightness    *float64 `json:"brightness,omitempty"`
	AutoWrite     *bool    `json:"auto_write,omitempty"`
	PixelOrder    string   `json:"pixel_order,omitempty"`
	BytesPerPixel int      `json:"bpp,omitempty"`
}

// Default values merged into an init payload by WithDefaults.
const (
	DefaultBrightness = 1.0
	DefaultAutoWrite  = true
)

// WithDefaults returns a copy with brightness and auto_write filled in when
// the sender omitted them.
func (c InitConfig) WithDefaults() InitConfig {
	if c.Brightness == nil {
		b := DefaultBrightness
		c.Brightness = &b
	}
	if c.AutoWrite == nil {
		a := DefaultAutoWrite
		c.AutoWrite = &a
	}
	return c
}

// Message is one decoded wire message. Only the fields relevant to Kind are
// set.
type Message struct {
	Kind       Kind
	Init       *InitConfig
	Index      int
	Color      Color
	Brightness float64
}

// Init builds an init message.
func Init(cfg InitConfig) Message {
	return Message{Kind: KindInit, Init: &cfg}
}

// Fill builds a fill message.
func Fill(c Color) Message {
	return Message{Kind: KindFill, Color: c}
}

// Pixel builds a single-pixel message.
func Pixel(index int, c Color) Message {
	return Message{Kind: KindPixel, Index: index, Color: c}
}

// Brightness builds a brightness message.
func Brightness(v float64) Message {
	return Message{Kind: KindBrightness, Brightness: v}
}

// Show builds a show message.
func Show() Message {
	return Message{Kind: KindShow}
}

// String renders the message for logs.
func (m Message) String() string {
	switch m.Kind {
	case KindInit:
		if m.Init == nil {
			return "init(<nil>)"
		}
		return fmt.Sprintf("init(pin=%d n=%d order=%q)", m.Init.Pin, m.Init.NumPixels, m.Init.PixelOrder)
	case KindFill:
		return fmt.Sprintf("fill%v", m.Color)
	case KindPixel:
		return fmt.Sprintf("pixel[%d]%v", m.Index, m.Color)
	case KindBrightness:
		return fmt.Sprintf("brightness(%g)", m.Brightness)
	case KindShow:
		return "show"
	default:
		return m.Kind.String()
	}
}
