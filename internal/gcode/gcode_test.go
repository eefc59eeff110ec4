package gcode

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// recorder is a delegate that records calls.
type recorder struct {
	calls  []string
	failOn string
}

func (r *recorder) record(call string) error {
	r.calls = append(r.calls, call)
	if call == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Init(wire.InitConfig) error { return r.record("init") }
func (r *recorder) Show() error                { return r.record("show") }
func (r *recorder) Fill(c pixel.Color) error   { return r.record("fill " + c.String()) }
func (r *recorder) SetItem(i int, c pixel.Color) error {
	return r.record(fmt.Sprintf("set %d %s", i, c))
}
func (r *recorder) GetItem(int) (pixel.Color, error) { return pixel.Black, nil }
func (r *recorder) SetBrightness(v float64) error {
	return r.record(fmt.Sprintf("brightness %.3f", v))
}
func (r *recorder) Brightness() (float64, error) { return 0, nil }
func (r *recorder) Close() error                 { return nil }

func TestParse(t *testing.T) {
	tests := []struct {
		line   string
		want   Command
		wantOK bool
	}{
		{
			line:   "M150 R255 U50 B0 W0",
			want:   Command{Color: pixel.RGBW(255, 50, 0, 0), HasColor: true},
			wantOK: true,
		},
		{
			line:   "M150 I3 R10 U20 B30",
			want:   Command{Index: 3, HasIndex: true, Color: pixel.RGBW(10, 20, 30, 0), HasColor: true},
			wantOK: true,
		},
		{
			line:   "M150 P128",
			want:   Command{Brightness: 128 / 255.0, HasBrightness: true},
			wantOK: true,
		},
		{
			line:   "M150 S1",
			want:   Command{},
			wantOK: true,
		},
		{
			line:   "m150 r300 p999 ; warm white",
			want:   Command{Color: pixel.RGBW(255, 0, 0, 0), HasColor: true, Brightness: 1, HasBrightness: true},
			wantOK: true,
		},
		{
			line:   "M150 R-5 Ux Q7 B12 I",
			want:   Command{Color: pixel.RGBW(0, 0, 12, 0), HasColor: true},
			wantOK: true,
		},
		{line: "G1 X10 Y10", wantOK: false},
		{line: "M1500 R1", wantOK: false},
		{line: "; M150 R1", wantOK: false},
		{line: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Parse(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseBrightnessValue(t *testing.T) {
	cmd, _ := Parse("M150 P128")
	if math.Abs(cmd.Brightness-0.502) > 0.001 {
		t.Errorf("Brightness = %v, want ~0.502", cmd.Brightness)
	}
	if cmd.HasColor {
		t.Error("P alone must not change colour")
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"M150 R255 U50 B0 W0", []string{"fill (255, 50, 0, 0)", "show"}},
		{"M150 I3 R10 U20 B30", []string{"set 3 (10, 20, 30, 0)", "show"}},
		{"M150 P128", []string{"brightness 0.502", "show"}},
		{"M150 I2 W9 P255", []string{"set 2 (0, 0, 0, 9)", "brightness 1.000", "show"}},
		{"M150 S1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, _ := Parse(tt.line)
			r := &recorder{}
			if err := cmd.Apply(r); err != nil {
				t.Fatalf("Apply error = %v", err)
			}
			if !reflect.DeepEqual(r.calls, tt.want) {
				t.Errorf("calls = %v, want %v", r.calls, tt.want)
			}
		})
	}
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	cmd, _ := Parse("M150 I40 R1 P10")
	r := &recorder{failOn: "set 40 (1, 0, 0, 0)"}

	err := cmd.Apply(r)
	if err == nil {
		t.Fatal("Expected error")
	}
	want := []string{"set 40 (1, 0, 0, 0)", "brightness 0.039", "show"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls = %v, want %v", r.calls, want)
	}
}

func TestCommandString(t *testing.T) {
	cmd, _ := Parse("M150 I3 R10 U20 B30 P128")
	if got := cmd.String(); got != "M150 I3 R10 U20 B30 W0 P128" {
		t.Errorf("String() = %q", got)
	}
}

func TestHookGating(t *testing.T) {
	on := func() bool { return true }
	off := func() bool { return false }

	tests := []struct {
		name        string
		hook        Hook
		line        string
		wantHandled bool
		wantForward string
	}{
		{"both on", Hook{Enabled: on, ParseGcode: on}, "M150 R1", true, ""},
		{"disabled", Hook{Enabled: off, ParseGcode: on}, "M150 R1", false, "M150 R1"},
		{"parsing off", Hook{Enabled: on, ParseGcode: off}, "M150 R1", false, "M150 R1"},
		{"unset gates", Hook{}, "M150 R1", false, "M150 R1"},
		{"other command", Hook{Enabled: on, ParseGcode: on}, "G28", false, "G28"},
		{"no-op M150", Hook{Enabled: on, ParseGcode: on}, "M150 S1", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.hook.Process(tt.line)
			if res.Handled != tt.wantHandled || res.Forward != tt.wantForward {
				t.Errorf("Process(%q) = %+v", tt.line, res)
			}
		})
	}
}
