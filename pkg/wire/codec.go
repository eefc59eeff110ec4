package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// applyOrder is the order in which keys sharing a line are applied. Init is
// always first so a strip exists before it is mutated.
var applyOrder = []string{KeyInit, KeyFill, KeyPixel, KeyBrightness, KeyShow}

// Marshal encodes msg as a single newline-terminated JSON object.
func Marshal(msg Message) ([]byte, error) {
	var value any
	switch msg.Kind {
	case KindInit:
		if msg.Init == nil {
			return nil, fmt.Errorf("%w: init message without config", ErrMalformed)
		}
		value = msg.Init
	case KindFill:
		value = msg.Color
	case KindPixel:
		value = []any{msg.Index, msg.Color}
	case KindBrightness:
		value = msg.Brightness
	case KindShow:
		value = ""
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, int(msg.Kind))
	}

	data, err := json.Marshal(map[string]any{msg.Kind.Key(): value})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msg.Kind, err)
	}
	return append(data, '\n'), nil
}

// Encode writes msg to w as one line.
func Encode(w io.Writer, msg Message) error {
	line, err := Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Kind, err)
	}
	return nil
}

// IsEOF reports whether line is the benign end-of-session marker: empty after
// trimming, or not starting with '{'.
func IsEOF(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	return len(trimmed) == 0 || trimmed[0] != '{'
}

// Decoded is the result of decoding one line.
type Decoded struct {
	// Messages holds the recognised messages in application order.
	Messages []Message

	// Unknown lists keys that were present but not recognised.
	Unknown []string

	// Invalid holds one ErrMalformed error per recognised key whose value
	// could not be decoded. The other keys of the line are still returned.
	Invalid []error
}

// Err joins the per-key decode errors, or returns nil.
func (d Decoded) Err() error {
	return errors.Join(d.Invalid...)
}

// Decode parses one line into its messages. Callers should check IsEOF first;
// a line that is not a JSON object is reported as ErrMalformed. A malformed
// value only drops its own message and is reported in Decoded.Invalid.
func Decode(line []byte) (Decoded, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(line), &fields); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return Decoded{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	var out Decoded
	for _, key := range applyOrder {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		msg, err := decodeField(key, raw)
		if err != nil {
			out.Invalid = append(out.Invalid, err)
			continue
		}
		out.Messages = append(out.Messages, msg)
	}

	for key := range fields {
		if !slices.Contains(applyOrder, key) {
			out.Unknown = append(out.Unknown, key)
		}
	}
	slices.Sort(out.Unknown)

	return out, nil
}

func decodeField(key string, raw json.RawMessage) (Message, error) {
	switch key {
	case KeyInit:
		cfg, err := decodeInit(raw)
		if err != nil {
			return Message{}, err
		}
		return Init(cfg), nil

	case KeyFill:
		var c Color
		if err := json.Unmarshal(raw, &c); err != nil {
			return Message{}, fmt.Errorf("%w: fill: %v", ErrMalformed, err)
		}
		return Fill(c), nil

	case KeyPixel:
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return Message{}, fmt.Errorf("%w: pixel must be [index, [r, g, b, w]]", ErrMalformed)
		}
		var index int
		if err := json.Unmarshal(pair[0], &index); err != nil {
			return Message{}, fmt.Errorf("%w: pixel index: %v", ErrMalformed, err)
		}
		var c Color
		if err := json.Unmarshal(pair[1], &c); err != nil {
			return Message{}, fmt.Errorf("%w: pixel color: %v", ErrMalformed, err)
		}
		return Pixel(index, c), nil

	case KeyBrightness:
		v, err := decodeNumber(raw)
		if err != nil {
			return Message{}, fmt.Errorf("%w: brightness: %v", ErrMalformed, err)
		}
		return Brightness(v), nil

	case KeyShow:
		return Show(), nil
	}

	return Message{}, fmt.Errorf("%w: unknown key %q", ErrMalformed, key)
}

// decodeInit requires the pin and pixel count to be present.
func decodeInit(raw json.RawMessage) (InitConfig, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return InitConfig{}, fmt.Errorf("%w: init must be an object", ErrMalformed)
	}
	for _, required := range []string{"pin", "n"} {
		if _, ok := fields[required]; !ok {
			return InitConfig{}, fmt.Errorf("%w: init is missing %q", ErrMalformed, required)
		}
	}

	var cfg InitConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return InitConfig{}, fmt.Errorf("%w: init: %v", ErrMalformed, err)
	}
	return cfg, nil
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}
