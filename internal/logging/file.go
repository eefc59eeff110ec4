package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

const (
	// DefaultWorkerLogPath is where the worker logs unless told otherwise.
	DefaultWorkerLogPath = "/tmp/plugin_neopixel_illumination_api.log"

	// DefaultMaxFileSize is the size at which the worker log is rotated.
	DefaultMaxFileSize = 5 * 1024 * 1024
)

// OpenFile opens path for appending. When the existing file is larger than
// maxBytes it is first compressed to path+".1.xz" (replacing any previous
// archive) and truncated. maxBytes <= 0 disables rotation.
func OpenFile(path string, maxBytes int64) (*os.File, error) {
	if maxBytes > 0 {
		if err := rotate(path, maxBytes); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G302 - log is read by the unprivileged control process
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ArchivePath returns where a rotated log is written.
func ArchivePath(path string) string {
	return path + ".1.xz"
}

func rotate(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() <= maxBytes {
		return nil
	}

	if err := compressFile(path, ArchivePath(path)); err != nil {
		return err
	}

	if err := os.Truncate(path, 0); err != nil {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}
	return nil
}

func compressFile(src, dest string) error {
	in, err := os.Open(src) // #nosec G304 - path is the configured log file
	if err != nil {
		return fmt.Errorf("failed to open log for rotation: %w", err)
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp) // #nosec G304 - derived from the configured log file
	if err != nil {
		return fmt.Errorf("failed to create log archive: %w", err)
	}

	xzw, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	_, copyErr := io.Copy(xzw, in)
	xzErr := xzw.Close()
	closeErr := out.Close()

	if err := errors.Join(copyErr, xzErr, closeErr); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to compress log: %w", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to install log archive: %w", err)
	}
	return nil
}
