// Package http provides the small HTTP client used to reach a remote worker.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/neopixel/internal/security"
	"github.com/jmylchreest/neopixel/internal/version"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 5 * time.Second

	// MaxResponseBytes bounds a response body.
	MaxResponseBytes = 64 * 1024
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// Options configures a request.
type Options struct {
	// Timeout specifies the request timeout.
	// If zero, DefaultTimeout is used.
	Timeout time.Duration

	// Headers specifies additional headers to send with the request.
	Headers map[string]string

	// Client overrides the client used for the request.
	Client *http.Client
}

// Fetch performs a GET and returns the body.
func Fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	return Do(ctx, http.MethodGet, url, nil, opts)
}

// Post sends body with the given content type and returns the response body.
func Post(ctx context.Context, url, contentType string, body []byte, opts Options) ([]byte, error) {
	if opts.Headers == nil {
		opts.Headers = map[string]string{}
	}
	opts.Headers["Content-Type"] = contentType
	return Do(ctx, http.MethodPost, url, body, opts)
}

// Do performs a request with the User-Agent set and the response size bounded.
// Non-2xx responses are returned as *StatusError.
func Do(ctx context.Context, method, url string, body []byte, opts Options) ([]byte, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(security.NewLimitedReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(data))}
	}
	return data, nil
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
