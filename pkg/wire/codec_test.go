package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func ptr[T any](v T) *T {
	return &v
}

// TestRoundTrip checks decode(encode(m)) == m for every message kind.
func TestRoundTrip(t *testing.T) {
	messages := []Message{
		Init(InitConfig{Pin: 10, NumPixels: 24, PixelOrder: "GRBW"}),
		Init(InitConfig{Pin: 18, NumPixels: 8, Brightness: ptr(0.25), AutoWrite: ptr(false), BytesPerPixel: 4}),
		Fill(Color{255, 50, 0, 0}),
		Pixel(3, Color{10, 20, 30, 0}),
		Pixel(-1, Color{1, 2, 3, 4}),
		Brightness(128 / 255.0),
		Show(),
	}

	for _, msg := range messages {
		t.Run(msg.String(), func(t *testing.T) {
			line, err := Marshal(msg)
			if err != nil {
				t.Fatalf("Marshal error = %v", err)
			}
			if !bytes.HasSuffix(line, []byte("\n")) || bytes.Count(line, []byte("\n")) != 1 {
				t.Fatalf("line must end with exactly one newline: %q", line)
			}

			decoded, err := Decode(line)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", line, err)
			}
			if len(decoded.Messages) != 1 {
				t.Fatalf("Decode returned %d messages, want 1", len(decoded.Messages))
			}
			if !reflect.DeepEqual(decoded.Messages[0], msg) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded.Messages[0], msg)
			}
		})
	}
}

func TestMarshalShapes(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Fill(Color{1, 2, 3, 4}), `{"fill":[1,2,3,4]}` + "\n"},
		{Pixel(5, Color{1, 2, 3, 0}), `{"pixel":[5,[1,2,3,0]]}` + "\n"},
		{Brightness(0.5), `{"brightness":0.5}` + "\n"},
		{Show(), `{"show":""}` + "\n"},
		{Init(InitConfig{Pin: 10, NumPixels: 24}), `{"init":{"pin":10,"n":24}}` + "\n"},
	}
	for _, tt := range tests {
		got, err := Marshal(tt.msg)
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", tt.msg, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%s) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestDecodeOrdersInitFirst(t *testing.T) {
	decoded, err := Decode([]byte(`{"show": "", "fill": [1,1,1,1], "init": {"pin": 10, "n": 2}, "bogus": 1}`))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	var kinds []Kind
	for _, m := range decoded.Messages {
		kinds = append(kinds, m.Kind)
	}
	want := []Kind{KindInit, KindFill, KindShow}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if !reflect.DeepEqual(decoded.Unknown, []string{"bogus"}) {
		t.Errorf("Unknown = %v, want [bogus]", decoded.Unknown)
	}
}

func TestDecodeCoercion(t *testing.T) {
	tests := []struct {
		line string
		want float64
	}{
		{`{"brightness": 1}`, 1},
		{`{"brightness": 0.2}`, 0.2},
		{`{"brightness": "0.75"}`, 0.75},
	}
	for _, tt := range tests {
		decoded, err := Decode([]byte(tt.line))
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", tt.line, err)
		}
		if got := decoded.Messages[0].Brightness; got != tt.want {
			t.Errorf("Decode(%s) brightness = %v, want %v", tt.line, got, tt.want)
		}
	}

	decoded, err := Decode([]byte(`{"fill": [9, 8, 7]}`))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if decoded.Messages[0].Color != (Color{9, 8, 7, 0}) {
		t.Errorf("three-channel fill decoded as %v", decoded.Messages[0].Color)
	}
}

func TestDecodeErrors(t *testing.T) {
	lines := []string{
		`{"fill": "red"`,
		`[1, 2, 3]`,
		`null`,
		`{"pixel": [1]}`,
		`{"pixel": ["a", [1,2,3,4]]}`,
		`{"brightness": "bright"}`,
		`{"init": {"n": 24}}`,
		`{"init": {"pin": 10}}`,
		`{"fill": [256, 0, 0, 0]}`,
	}
	for _, line := range lines {
		decoded, err := Decode([]byte(line))
		if err == nil {
			err = decoded.Err()
		}
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%s) error = %v, want ErrMalformed", line, err)
		}
	}
}

func TestDecodeKeepsValidKeys(t *testing.T) {
	decoded, err := Decode([]byte(`{"init": {"pin": 10, "n": 4}, "fill": "red", "show": ""}`))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if len(decoded.Invalid) != 1 || !errors.Is(decoded.Err(), ErrMalformed) {
		t.Errorf("Invalid = %v, want one ErrMalformed", decoded.Invalid)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("Messages = %v, want init and show", decoded.Messages)
	}
	if decoded.Messages[0].Kind != KindInit || decoded.Messages[1].Kind != KindShow {
		t.Errorf("Messages = %v, want init then show", decoded.Messages)
	}
}

func TestIsEOF(t *testing.T) {
	tests := map[string]bool{
		"":                  true,
		"   \n":             true,
		"bye":               true,
		"[1]":               true,
		`{"show": ""}`:      false,
		"  {\"show\": \"\"}": false,
	}
	for line, want := range tests {
		if got := IsEOF([]byte(line)); got != want {
			t.Errorf("IsEOF(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := InitConfig{Pin: 10, NumPixels: 3}.WithDefaults()
	if cfg.Brightness == nil || *cfg.Brightness != DefaultBrightness {
		t.Errorf("Brightness = %v, want %v", cfg.Brightness, DefaultBrightness)
	}
	if cfg.AutoWrite == nil || *cfg.AutoWrite != DefaultAutoWrite {
		t.Errorf("AutoWrite = %v, want %v", cfg.AutoWrite, DefaultAutoWrite)
	}

	explicit := InitConfig{Pin: 10, NumPixels: 3, Brightness: ptr(0.1), AutoWrite: ptr(false)}.WithDefaults()
	if *explicit.Brightness != 0.1 || *explicit.AutoWrite {
		t.Error("WithDefaults overrode explicit values")
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Show()); err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if err := Encode(&buf, Fill(Color{1, 2, 3, 4})); err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 2 {
		t.Errorf("Expected 2 lines, got %d", got)
	}
	if err := Encode(&buf, Message{}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for zero message, got %v", err)
	}
}
