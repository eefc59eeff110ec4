package delegate

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// DialTimeout bounds the single connection attempt made by NewSocket.
const DialTimeout = 2 * time.Second

// Socket sends wire messages over one Unix socket connection opened at
// construction. There is no reconnection: once the connection is lost every
// send fails until the delegate is replaced.
type Socket struct {
	path   string
	logger hclog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewSocket connects to the worker at path. A failed connect is logged and
// leaves the delegate degraded; every send then returns ErrNotConnected.
func NewSocket(path string, logger hclog.Logger) *Socket {
	s := &Socket{
		path:   path,
		logger: logging.OrNull(logger).Named("delegate.socket"),
	}

	conn, err := net.DialTimeout("unix", path, DialTimeout)
	if err != nil {
		s.logger.Error("failed to connect to worker", "socket", path, "error", err)
		return s
	}
	s.conn = conn
	s.logger.Debug("connected to worker", "socket", path)
	return s
}

// Connected reports whether the initial connect succeeded and the delegate
// has not been closed.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Socket) Init(cfg wire.InitConfig) error {
	return s.send(wire.Init(cfg))
}

func (s *Socket) Show() error {
	return s.send(wire.Show())
}

func (s *Socket) Fill(c pixel.Color) error {
	return s.send(wire.Fill(toWire(c)))
}

func (s *Socket) SetItem(index int, c pixel.Color) error {
	return s.send(wire.Pixel(index, toWire(c)))
}

func (s *Socket) SetBrightness(v float64) error {
	return s.send(wire.Brightness(v))
}

// GetItem is not forwarded over the socket.
func (s *Socket) GetItem(int) (pixel.Color, error) {
	return pixel.Black, fmt.Errorf("%w: get item over socket", ErrNotSupported)
}

// Brightness is not forwarded over the socket.
func (s *Socket) Brightness() (float64, error) {
	return 0, fmt.Errorf("%w: get brightness over socket", ErrNotSupported)
}

// Close ends the session with an empty line and closes the connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	_, _ = s.conn.Write([]byte("\n"))
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Socket) send(msg wire.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, s.path)
	}
	if err := wire.Encode(s.conn, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
