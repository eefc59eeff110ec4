// Package gcode recognises the M150 set-LED command in the printer's
// outgoing G-code stream.
//
//	M150 [I<index>] [R<red>] [U<green>] [B<blue>] [W<white>] [P<brightness>] [S<strip>]
//
// Every value is an unsigned integer. Channel and brightness values above 255
// are clamped. S is accepted and ignored: only one strip is driven.
package gcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/neopixel/internal/delegate"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/security"
)

// Opcode is the command this package handles.
const Opcode = "M150"

// Command is a parsed M150 line.
type Command struct {
	Index    int
	HasIndex bool

	Color    pixel.Color
	HasColor bool

	// Brightness is P/255.
	Brightness    float64
	HasBrightness bool
}

// Empty reports whether the command changes nothing.
func (c Command) Empty() bool {
	return !c.HasColor && !c.HasBrightness
}

// String renders the command back as G-code.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(Opcode)
	if c.HasIndex {
		fmt.Fprintf(&b, " I%d", c.Index)
	}
	if c.HasColor {
		fmt.Fprintf(&b, " R%d U%d B%d W%d", c.Color.R, c.Color.G, c.Color.B, c.Color.W)
	}
	if c.HasBrightness {
		fmt.Fprintf(&b, " P%d", int(c.Brightness*255+0.5))
	}
	return b.String()
}

// Parse parses line. ok is false when line is not an M150 command. Unknown
// parameters and malformed values are skipped.
func Parse(line string) (cmd Command, ok bool) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], Opcode) {
		return Command{}, false
	}

	for _, field := range fields[1:] {
		letter := field[0] | 0x20 // ASCII lower case
		value, err := parseUnsigned(field[1:])
		if err != nil {
			continue
		}

		switch letter {
		case 'i':
			cmd.Index, cmd.HasIndex = value, true
		case 'r':
			cmd.Color.R, cmd.HasColor = security.SafeUint8(value), true
		case 'u':
			cmd.Color.G, cmd.HasColor = security.SafeUint8(value), true
		case 'b':
			cmd.Color.B, cmd.HasColor = security.SafeUint8(value), true
		case 'w':
			cmd.Color.W, cmd.HasColor = security.SafeUint8(value), true
		case 'p':
			cmd.Brightness, cmd.HasBrightness = float64(security.SafeUint8(value))/255.0, true
		case 's':
			// single strip only
		}
	}
	return cmd, true
}

func parseUnsigned(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid value %q", s)
		}
	}
	return strconv.Atoi(s)
}

// Apply performs the command on d: the colour (one pixel or the whole strip),
// then the brightness, then a show. A failing step does not stop the others.
func (c Command) Apply(d delegate.Delegate) error {
	if c.Empty() {
		return nil
	}

	var errs []error
	if c.HasColor {
		if c.HasIndex {
			if err := d.SetItem(c.Index, c.Color); err != nil {
				errs = append(errs, fmt.Errorf("failed to set pixel %d: %w", c.Index, err))
			}
		} else if err := d.Fill(c.Color); err != nil {
			errs = append(errs, fmt.Errorf("failed to fill: %w", err))
		}
	}
	if c.HasBrightness {
		if err := d.SetBrightness(c.Brightness); err != nil {
			errs = append(errs, fmt.Errorf("failed to set brightness: %w", err))
		}
	}
	if err := d.Show(); err != nil {
		errs = append(errs, fmt.Errorf("failed to show: %w", err))
	}
	return errors.Join(errs...)
}
