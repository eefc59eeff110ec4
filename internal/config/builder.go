package config

import (
	"fmt"
	"os"
	"strings"
)

// Builder assembles settings from defaults, a file and the environment.
// Later sources override earlier ones.
type Builder struct {
	settings Settings
	path     string
	useEnv   bool
	lookup   func(string) (string, bool)
}

// NewBuilder starts from Defaults.
func NewBuilder() *Builder {
	return &Builder{settings: Defaults(), lookup: os.LookupEnv}
}

// WithSettings replaces the base settings.
func (b *Builder) WithSettings(s Settings) *Builder {
	b.settings = s
	return b
}

// WithFile loads the YAML file at path over the base settings.
func (b *Builder) WithFile(path string) *Builder {
	b.path = path
	return b
}

// WithEnvConfig applies NEOPIXEL_<KEY> overrides, e.g. NEOPIXEL_NUM_PIXELS.
// NEOPIXEL_WORKER_COMMAND is comma-separated.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// Build returns the merged settings. They are not validated.
func (b *Builder) Build() (Settings, error) {
	s := b.settings

	if b.path != "" {
		if err := readInto(b.path, &s); err != nil {
			return s, err
		}
	}

	if b.useEnv {
		for _, key := range Keys {
			value, ok := b.lookup(EnvName(key))
			if !ok {
				continue
			}
			if err := s.Set(key, value); err != nil {
				return s, fmt.Errorf("%s: %w", EnvName(key), err)
			}
		}
	}

	return s, nil
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}
