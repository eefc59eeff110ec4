package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

// Handler exposes the dispatcher over HTTP:
//
//	POST /                wire message line(s) in the body
//	GET  /pixel/{index}   [r, g, b, w]
//	GET  /brightness      float
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handlePost)
	mux.HandleFunc("GET /pixel/{index}", s.handlePixel)
	mux.HandleFunc("GET /brightness", s.handleBrightness)
	return mux
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(http.MaxBytesReader(w, r.Body, maxLineBytes))
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var applyErrs, decodeErrs []error
	for scanner.Scan() {
		line := scanner.Bytes()
		if wire.IsEOF(line) {
			continue
		}
		decoded, err := wire.Decode(line)
		if err != nil {
			s.logger.Error("failed to decode message", "transport", "http", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, err := range decoded.Invalid {
			s.logger.Error("failed to decode message", "transport", "http", "error", err)
			decodeErrs = append(decodeErrs, err)
		}
		for _, msg := range decoded.Messages {
			if err := s.Apply(msg); err != nil {
				s.logger.Error("failed to apply message", "transport", "http", "message", msg.String(), "error", err)
				applyErrs = append(applyErrs, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := errors.Join(decodeErrs...); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := errors.Join(applyErrs...); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	c, err := s.Pixel(index)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, wire.Color(c.Tuple()))
}

func (s *Server) handleBrightness(w http.ResponseWriter, _ *http.Request) {
	v, err := s.Brightness()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotInitialised):
		return http.StatusConflict
	case errors.Is(err, pixel.ErrIndexOutOfRange):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServeHTTP serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http endpoint is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http endpoint failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
