// Package security provides validation helpers for paths and values that cross
// the privilege boundary between the control process and the worker.
package security

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// shellMeta holds characters that must never appear in anything handed to the
// elevation tool, even though it is never run through a shell.
const shellMeta = "|&;`$()<>\n"

// ValidateAbsPath validates a filesystem path used for the socket or the
// worker log. The path must be absolute, already clean and free of shell
// metacharacters.
func ValidateAbsPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if strings.ContainsAny(path, shellMeta) {
		return fmt.Errorf("path contains suspicious characters: %q", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path is not clean (use %s)", filepath.Clean(path))
	}

	return nil
}

// ValidateExecutableName checks that name is a bare executable name (no path
// separators) suitable for a PATH lookup, e.g. the elevation tool.
func ValidateExecutableName(name string) error {
	if name == "" {
		return fmt.Errorf("empty executable name")
	}
	if strings.ContainsAny(name, "/\\"+shellMeta) {
		return fmt.Errorf("invalid executable name %q: contains path separators or suspicious characters", name)
	}
	return nil
}

// ValidateArgv rejects command vectors containing empty elements or shell
// metacharacters.
func ValidateArgv(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	for i, arg := range argv {
		if arg == "" {
			return fmt.Errorf("command argument %d is empty", i)
		}
		if strings.ContainsAny(arg, shellMeta) {
			return fmt.Errorf("command argument %d contains suspicious characters: %q", i, arg)
		}
	}
	return nil
}

// SafeUint8 safely converts an integer to uint8 with bounds checking.
// Values outside 0-255 are clamped to the valid range.
func SafeUint8(val int) uint8 {
	if val < 0 {
		return 0
	}
	if val > 255 {
		return 255
	}
	return uint8(val)
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// Unlike io.LimitReader it reports an error instead of a silent EOF, so a
// truncated response is never mistaken for a complete one.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, fmt.Errorf("read size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
