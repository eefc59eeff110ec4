// Package config holds the control process settings. Settings are read from a
// YAML file and may be overridden with NEOPIXEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/neopixel/internal/delegate"
	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/security"
	"github.com/jmylchreest/neopixel/internal/worker"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid settings")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEOPIXEL_"

// Settings is the flat set of recognised keys.
type Settings struct {
	Brightness   float64 `yaml:"brightness"`
	Enabled      bool    `yaml:"enabled"`
	NumPixels    int     `yaml:"num_pixels"`
	PixelOrder   string  `yaml:"pixel_order"`
	PixelPin     int     `yaml:"pixel_pin"`
	StartupColor string  `yaml:"startup_color"`
	ParseGcode   bool    `yaml:"parse_gcode"`
	SudoPassword string  `yaml:"sudo_password,omitempty"`

	Backend       string   `yaml:"backend"`
	SocketPath    string   `yaml:"socket_path"`
	HTTPURL       string   `yaml:"http_url,omitempty"`
	WorkerCommand []string `yaml:"worker_command"`
	WorkerLog     string   `yaml:"worker_log"`
	ElevationTool string   `yaml:"elevation_tool"`
}

// Defaults returns the settings used for any key not configured.
func Defaults() Settings {
	return Settings{
		Brightness:    0.2,
		Enabled:       true,
		NumPixels:     24,
		PixelOrder:    string(pixel.OrderGRBW),
		PixelPin:      10,
		StartupColor:  "#00ffff00",
		ParseGcode:    true,
		Backend:       string(delegate.KindSocket),
		SocketPath:    worker.DefaultSocketPath,
		WorkerCommand: []string{"/usr/local/bin/neopixeld"},
		WorkerLog:     logging.DefaultWorkerLogPath,
		ElevationTool: "sudo",
	}
}

// Load reads settings from path on top of the defaults. A missing file is
// not an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	err := readInto(path, &s)
	return s, err
}

func readInto(path string, s *Settings) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the operator
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return nil
}

// Save writes s to path. The file is private because it may hold the
// elevation credential.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "neopixel", "settings.yaml")
}

// Redacted returns a copy without the credential.
func (s Settings) Redacted() Settings {
	s.SudoPassword = ""
	s.WorkerCommand = append([]string(nil), s.WorkerCommand...)
	return s
}

// Validate reports every invalid key.
func (s Settings) Validate() error {
	var errs []error

	if s.Brightness < 0 || s.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness must be between 0 and 1, got %v", s.Brightness))
	}
	if s.NumPixels <= 0 {
		errs = append(errs, fmt.Errorf("num_pixels must be positive, got %d", s.NumPixels))
	}
	if _, err := pixel.ParseOrder(s.PixelOrder); err != nil {
		errs = append(errs, err)
	}
	if s.PixelPin < 0 {
		errs = append(errs, fmt.Errorf("pixel_pin must not be negative, got %d", s.PixelPin))
	}
	if s.StartupColor != "" {
		if _, err := pixel.ParseColor(s.StartupColor); err != nil {
			errs = append(errs, fmt.Errorf("startup_color: %w", err))
		}
	}

	kind, err := delegate.ParseKind(s.Backend)
	if err != nil {
		errs = append(errs, err)
	}
	switch kind {
	case delegate.KindHTTP:
		if s.HTTPURL == "" {
			errs = append(errs, fmt.Errorf("http_url is required for the http backend"))
		}
	case delegate.KindSocket:
		if err := security.ValidateAbsPath(s.SocketPath); err != nil {
			errs = append(errs, fmt.Errorf("socket_path: %w", err))
		}
		if err := security.ValidateArgv(s.WorkerCommand); err != nil {
			errs = append(errs, fmt.Errorf("worker_command: %w", err))
		}
		if err := security.ValidateAbsPath(s.WorkerLog); err != nil {
			errs = append(errs, fmt.Errorf("worker_log: %w", err))
		}
		if err := security.ValidateExecutableName(s.ElevationTool); err != nil {
			errs = append(errs, fmt.Errorf("elevation_tool: %w", err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Order returns the parsed pixel order.
func (s Settings) Order() (pixel.Order, error) {
	return pixel.ParseOrder(s.PixelOrder)
}

// StartupColour returns the parsed startup colour. ok is false when none is
// configured.
func (s Settings) StartupColour() (c pixel.Color, ok bool, err error) {
	if strings.TrimSpace(s.StartupColor) == "" {
		return pixel.Black, false, nil
	}
	c, err = pixel.ParseColor(s.StartupColor)
	return c, err == nil, err
}

// InitConfig returns the init message for the configured strip. Writes are
// explicit so auto_write is off.
func (s Settings) InitConfig() wire.InitConfig {
	brightness := s.Brightness
	autoWrite := false
	return wire.InitConfig{
		Pin:        s.PixelPin,
		NumPixels:  s.NumPixels,
		Brightness: &brightness,
		AutoWrite:  &autoWrite,
		PixelOrder: strings.ToUpper(s.PixelOrder),
	}
}

// WorkerArgv returns the worker command with its socket argument.
func (s Settings) WorkerArgv() []string {
	argv := append([]string(nil), s.WorkerCommand...)
	return append(argv, "--socket", s.SocketPath)
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

// parseList splits a comma-separated list, dropping empty entries.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
