// Package worker implements the privileged side of the channel: it owns the
// physical strip and applies wire messages received over a Unix domain
// socket (and optionally HTTP).
package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

const (
	// DefaultSocketPath is the well-known socket the control process dials.
	DefaultSocketPath = "/tmp/neopixel_socket"

	// SocketMode lets the unprivileged control process connect.
	SocketMode = 0o666

	// maxLineBytes bounds a single wire message.
	maxLineBytes = 64 * 1024
)

// ErrNotInitialised is returned when a mutation arrives before any init.
var ErrNotInitialised = errors.New("strip not initialised")

// StripFactory builds a strip for an init message.
type StripFactory func(cfg wire.InitConfig) (*pixel.Strip, error)

// Server applies wire messages to a single strip. Messages are applied one at
// a time regardless of which transport delivered them.
type Server struct {
	logger  hclog.Logger
	factory StripFactory

	mu    sync.Mutex
	strip *pixel.Strip

	lmu      sync.Mutex
	listener net.Listener
	conn     net.Conn
	path     string
}

// NewServer creates a server that builds strips with factory.
func NewServer(factory StripFactory, logger hclog.Logger) *Server {
	return &Server{
		logger:  logging.OrNull(logger).Named("worker"),
		factory: factory,
	}
}

// RemoveStale unlinks a socket left by a previous run. A missing file is fine;
// any other failure is returned and should abort startup.
func RemoveStale(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, statErr := os.Lstat(path); errors.Is(statErr, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to remove stale socket %s: %w", path, err)
}

// Listen binds the Unix socket at path and makes it world read/write.
func (s *Server) Listen(path string) error {
	if err := RemoveStale(path); err != nil {
		return err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	if err := os.Chmod(path, SocketMode); err != nil {
		l.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	s.lmu.Lock()
	s.listener = l
	s.path = path
	s.lmu.Unlock()

	s.logger.Info("server is running", "socket", path)
	return nil
}

// Serve accepts connections one at a time, handling each until the client
// signals EOF. It returns nil once ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.lmu.Lock()
	l := s.listener
	s.lmu.Unlock()
	if l == nil {
		return fmt.Errorf("server is not listening")
	}

	stop := context.AfterFunc(ctx, func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		l.Close()
		if s.conn != nil {
			s.conn.Close()
		}
	})
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.lmu.Lock()
		s.conn = conn
		s.lmu.Unlock()

		s.logger.Debug("client connected")
		s.HandleConn(conn)
		conn.Close()
		s.logger.Debug("client disconnected")

		s.lmu.Lock()
		s.conn = nil
		s.lmu.Unlock()
	}
}

// HandleConn reads and applies lines from r until the benign EOF marker, the
// end of the stream, or a read error.
func (s *Server) HandleConn(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if s.logger.IsDebug() {
			s.logger.Debug("message", "line", string(line))
		}
		if wire.IsEOF(line) {
			return
		}
		s.ApplyLine(line)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("connection closed", "error", err)
	}
}

// ApplyLine decodes one line and applies its messages. Failures are logged and
// the offending message skipped.
func (s *Server) ApplyLine(line []byte) {
	decoded, err := wire.Decode(line)
	if err != nil {
		s.logger.Error("failed to decode message", "error", err)
		return
	}
	if len(decoded.Unknown) > 0 {
		s.logger.Debug("ignoring unknown keys", "keys", decoded.Unknown)
	}
	for _, err := range decoded.Invalid {
		s.logger.Error("failed to decode message", "error", err)
	}

	for _, msg := range decoded.Messages {
		if err := s.Apply(msg); err != nil {
			s.logger.Error("failed to apply message", "message", msg.String(), "error", err)
		}
	}
}

// Apply applies a single message.
func (s *Server) Apply(msg wire.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Kind == wire.KindInit {
		return s.init(msg.Init)
	}

	if s.strip == nil {
		return ErrNotInitialised
	}

	switch msg.Kind {
	case wire.KindFill:
		return s.strip.Fill(toColor(msg.Color))
	case wire.KindPixel:
		return s.strip.Set(msg.Index, toColor(msg.Color))
	case wire.KindBrightness:
		s.strip.SetBrightness(msg.Brightness)
		return nil
	case wire.KindShow:
		return s.strip.Show()
	}
	return fmt.Errorf("unsupported message %s", msg.Kind)
}

func (s *Server) init(cfg *wire.InitConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: init without config", wire.ErrMalformed)
	}

	strip, err := s.factory(cfg.WithDefaults())
	if err != nil {
		return fmt.Errorf("failed to initialise strip: %w", err)
	}

	if s.strip != nil {
		if err := s.strip.Close(); err != nil {
			s.logger.Warn("failed to release previous strip", "error", err)
		}
	}
	s.strip = strip

	s.logger.Info("strip initialised", "pin", cfg.Pin, "pixels", strip.Len(), "order", strip.Order(),
		"brightness", strip.Brightness(), "auto_write", strip.AutoWrite())
	return nil
}

// Pixel returns the colour at index.
func (s *Server) Pixel(index int) (pixel.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strip == nil {
		return pixel.Color{}, ErrNotInitialised
	}
	return s.strip.Get(index)
}

// Brightness returns the strip brightness.
func (s *Server) Brightness() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strip == nil {
		return 0, ErrNotInitialised
	}
	return s.strip.Brightness(), nil
}

// Close stops listening, removes the socket and releases the strip.
func (s *Server) Close() error {
	s.lmu.Lock()
	l, path := s.listener, s.path
	s.listener = nil
	s.lmu.Unlock()

	var errs []error
	if l != nil {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	if s.strip != nil {
		if err := s.strip.Close(); err != nil {
			errs = append(errs, err)
		}
		s.strip = nil
	}
	s.mu.Unlock()

	return errors.Join(errs...)
}

func toColor(c wire.Color) pixel.Color {
	return pixel.RGBW(c[0], c[1], c[2], c[3])
}
