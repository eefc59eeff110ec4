// Package logging builds the hclog loggers used by both binaries and manages
// the worker's log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options configures a logger.
type Options struct {
	// Name is the root logger name.
	Name string

	// Level is one of trace, debug, info, warn, error, off.
	// Empty means info.
	Level string

	// Verbose forces debug level.
	Verbose bool

	// JSON switches to JSON output.
	JSON bool

	// Output defaults to stderr.
	Output io.Writer
}

// New creates a logger.
func New(opts Options) (hclog.Logger, error) {
	level := hclog.Info
	if opts.Level != "" {
		level = hclog.LevelFromString(strings.TrimSpace(opts.Level))
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("unknown log level %q", opts.Level)
		}
	}
	if opts.Verbose && level > hclog.Debug {
		level = hclog.Debug
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     output,
		JSONFormat: opts.JSON,
	}), nil
}

// OrNull returns logger, or a null logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
