// Package delegate puts every backend that can drive a strip behind one
// interface. Callers hold a Delegate and never the concrete variant.
package delegate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/worker"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

var (
	// ErrNotConnected is returned by a socket delegate whose initial connect
	// failed.
	ErrNotConnected = errors.New("not connected to worker")

	// ErrUnavailable is returned when a remote worker cannot be reached.
	ErrUnavailable = errors.New("worker unavailable")

	// ErrNotSupported is returned for operations a backend does not forward.
	ErrNotSupported = errors.New("operation not supported by backend")
)

// Delegate is the set of strip operations every backend implements. Errors
// are returned for the caller to log; no method panics on I/O failure.
type Delegate interface {
	Init(cfg wire.InitConfig) error
	Show() error
	Fill(c pixel.Color) error
	SetItem(index int, c pixel.Color) error
	GetItem(index int) (pixel.Color, error)
	SetBrightness(v float64) error
	Brightness() (float64, error)
	Close() error
}

// Kind selects a backend.
type Kind string

const (
	// KindLogging records calls in the log only.
	KindLogging Kind = "logging"
	// KindHTTP talks to a worker's HTTP endpoint.
	KindHTTP Kind = "http"
	// KindSocket talks to a worker over its Unix socket.
	KindSocket Kind = "socket"
	// KindDirect drives an in-process strip.
	KindDirect Kind = "direct"
)

// Kinds lists every backend.
var Kinds = []Kind{KindLogging, KindHTTP, KindSocket, KindDirect}

// ParseKind parses a backend name. An empty name selects KindLogging.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindLogging, nil
	}
	for _, k := range Kinds {
		if Kind(s) == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q", s)
}

// Options configures New.
type Options struct {
	Logger hclog.Logger

	// SocketPath is dialled by KindSocket.
	SocketPath string

	// HTTPURL is the base URL used by KindHTTP.
	HTTPURL string

	// HTTPTimeout bounds each request made by KindHTTP.
	HTTPTimeout time.Duration

	// HTTPClient overrides the client used by KindHTTP.
	HTTPClient *http.Client

	// Factory builds strips for KindDirect. Nil means a simulated strip.
	Factory worker.StripFactory
}

// New constructs the delegate for kind.
func New(kind Kind, opts Options) (Delegate, error) {
	switch kind {
	case "", KindLogging:
		return NewLogging(opts.Logger), nil
	case KindHTTP:
		return NewHTTP(opts.HTTPURL, HTTPOptions{
			Timeout: opts.HTTPTimeout,
			Client:  opts.HTTPClient,
			Logger:  opts.Logger,
		})
	case KindSocket:
		if opts.SocketPath == "" {
			opts.SocketPath = worker.DefaultSocketPath
		}
		return NewSocket(opts.SocketPath, opts.Logger), nil
	case KindDirect:
		return NewDirect(opts.Factory, opts.Logger), nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

func toWire(c pixel.Color) wire.Color {
	return wire.Color(c.Tuple())
}

func fromWire(c wire.Color) pixel.Color {
	return pixel.RGBW(c[0], c[1], c[2], c[3])
}
