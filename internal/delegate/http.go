package delegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/pixel"
	httputil "github.com/jmylchreest/neopixel/internal/util/http"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

const wireContentType = "application/x-ndjson"

// HTTPOptions configures an HTTP delegate.
type HTTPOptions struct {
	// Timeout bounds each request. Zero uses httputil.DefaultTimeout.
	Timeout time.Duration

	Client *http.Client
	Logger hclog.Logger
}

// HTTP forwards every call to a worker's HTTP endpoint. Mutations are posted
// as wire lines; reads are plain GETs.
type HTTP struct {
	base   string
	opts   httputil.Options
	logger hclog.Logger
}

// NewHTTP creates a delegate for the worker at baseURL. Only the URL is
// checked here; the worker is not contacted until the first call.
func NewHTTP(baseURL string, opts HTTPOptions) (*HTTP, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid worker URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid worker URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid worker URL %q: missing host", baseURL)
	}

	return &HTTP{
		base:   strings.TrimRight(u.String(), "/"),
		opts:   httputil.Options{Timeout: opts.Timeout, Client: opts.Client},
		logger: logging.OrNull(opts.Logger).Named("delegate.http"),
	}, nil
}

// URL returns the base URL.
func (h *HTTP) URL() string {
	return h.base
}

func (h *HTTP) Init(cfg wire.InitConfig) error {
	return h.post(wire.Init(cfg))
}

func (h *HTTP) Show() error {
	return h.post(wire.Show())
}

func (h *HTTP) Fill(c pixel.Color) error {
	return h.post(wire.Fill(toWire(c)))
}

func (h *HTTP) SetItem(index int, c pixel.Color) error {
	return h.post(wire.Pixel(index, toWire(c)))
}

func (h *HTTP) SetBrightness(v float64) error {
	return h.post(wire.Brightness(v))
}

func (h *HTTP) GetItem(index int) (pixel.Color, error) {
	var c wire.Color
	if err := h.get("/pixel/"+strconv.Itoa(index), &c); err != nil {
		return pixel.Black, err
	}
	return fromWire(c), nil
}

func (h *HTTP) Brightness() (float64, error) {
	var v float64
	if err := h.get("/brightness", &v); err != nil {
		return 0, err
	}
	return v, nil
}

// Close is a no-op; each call uses its own request.
func (h *HTTP) Close() error {
	return nil
}

func (h *HTTP) post(msg wire.Message) error {
	line, err := wire.Marshal(msg)
	if err != nil {
		return err
	}
	h.logger.Trace("post", "message", msg.String())

	if _, err := httputil.Post(context.Background(), h.base+"/", wireContentType, line, h.opts); err != nil {
		return h.wrap(msg.Kind.String(), err)
	}
	return nil
}

func (h *HTTP) get(path string, v any) error {
	data, err := httputil.Fetch(context.Background(), h.base+path, h.opts)
	if err != nil {
		return h.wrap("GET "+path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}
	return nil
}

// wrap marks transport failures with ErrUnavailable. Responses from a worker
// that was reached are returned as they are.
func (h *HTTP) wrap(op string, err error) error {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%s rejected by worker: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
