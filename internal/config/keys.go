package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys lists every settings key in display order.
var Keys = []string{
	"brightness",
	"enabled",
	"num_pixels",
	"pixel_order",
	"pixel_pin",
	"startup_color",
	"parse_gcode",
	"sudo_password",
	"backend",
	"socket_path",
	"http_url",
	"worker_command",
	"worker_log",
	"elevation_tool",
}

// secretKeys are never returned by Get.
var secretKeys = map[string]bool{"sudo_password": true}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// Get returns the value of key as text. Secret keys read back as "" or
// "[set]".
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "brightness":
		return strconv.FormatFloat(s.Brightness, 'g', -1, 64), nil
	case "enabled":
		return strconv.FormatBool(s.Enabled), nil
	case "num_pixels":
		return strconv.Itoa(s.NumPixels), nil
	case "pixel_order":
		return s.PixelOrder, nil
	case "pixel_pin":
		return strconv.Itoa(s.PixelPin), nil
	case "startup_color":
		return s.StartupColor, nil
	case "parse_gcode":
		return strconv.FormatBool(s.ParseGcode), nil
	case "sudo_password":
		if s.SudoPassword == "" {
			return "", nil
		}
		return "[set]", nil
	case "backend":
		return s.Backend, nil
	case "socket_path":
		return s.SocketPath, nil
	case "http_url":
		return s.HTTPURL, nil
	case "worker_command":
		return strings.Join(s.WorkerCommand, ","), nil
	case "worker_log":
		return s.WorkerLog, nil
	case "elevation_tool":
		return s.ElevationTool, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Set parses value into key. The result is not validated.
func (s *Settings) Set(key, value string) error {
	var err error
	switch key {
	case "brightness":
		s.Brightness, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("brightness: invalid number %q", value)
		}
	case "enabled":
		s.Enabled, err = parseBool(key, value)
	case "num_pixels":
		s.NumPixels, err = strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("num_pixels: invalid integer %q", value)
		}
	case "pixel_order":
		s.PixelOrder = strings.ToUpper(strings.TrimSpace(value))
	case "pixel_pin":
		s.PixelPin, err = strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("pixel_pin: invalid integer %q", value)
		}
	case "startup_color":
		s.StartupColor = strings.TrimSpace(value)
	case "parse_gcode":
		s.ParseGcode, err = parseBool(key, value)
	case "sudo_password":
		s.SudoPassword = value
	case "backend":
		s.Backend = strings.ToLower(strings.TrimSpace(value))
	case "socket_path":
		s.SocketPath = strings.TrimSpace(value)
	case "http_url":
		s.HTTPURL = strings.TrimSpace(value)
	case "worker_command":
		s.WorkerCommand = parseList(value)
	case "worker_log":
		s.WorkerLog = strings.TrimSpace(value)
	case "elevation_tool":
		s.ElevationTool = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return err
}
