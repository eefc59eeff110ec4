package delegate

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/neopixel/internal/hardware"
	"github.com/jmylchreest/neopixel/internal/pixel"
	"github.com/jmylchreest/neopixel/internal/worker"
	"github.com/jmylchreest/neopixel/pkg/wire"
)

func bufferLogger() (hclog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace}), &buf
}

func newWorker(t *testing.T) *worker.Server {
	t.Helper()
	s := worker.NewServer(worker.NewStripFactory(hardware.Options{Simulate: true}), nil)
	t.Cleanup(func() { s.Close() })
	return s
}

// exercise runs the mutating operations every backend must accept.
func exercise(d Delegate) []error {
	red := pixel.RGBW(255, 0, 0, 0)
	return []error{
		d.Init(wire.InitConfig{Pin: 10, NumPixels: 4}),
		d.Fill(red),
		d.SetItem(-1, pixel.RGBW(0, 0, 255, 7)),
		d.SetBrightness(0.4),
		d.Show(),
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"", KindLogging, false},
		{"Socket", KindSocket, false},
		{" http ", KindHTTP, false},
		{"direct", KindDirect, false},
		{"serial", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if d, err := New(KindLogging, Options{}); err != nil {
		t.Errorf("New(logging) error = %v", err)
	} else if _, ok := d.(*Logging); !ok {
		t.Errorf("New(logging) = %T", d)
	}

	if _, err := New(KindHTTP, Options{HTTPURL: ""}); err == nil {
		t.Error("Expected error for HTTP backend without URL")
	}
	if _, err := New(KindHTTP, Options{HTTPURL: "unix:///tmp/x"}); err == nil {
		t.Error("Expected error for non-http scheme")
	}
	if _, err := New(Kind("bogus"), Options{}); err == nil {
		t.Error("Expected error for unknown backend")
	}

	d, err := New(KindSocket, Options{SocketPath: filepath.Join(t.TempDir(), "absent")})
	if err != nil {
		t.Fatalf("New(socket) error = %v", err)
	}
	if s := d.(*Socket); s.Connected() {
		t.Error("socket to missing path reports connected")
	}
}

func TestLoggingRecordsEveryCall(t *testing.T) {
	logger, buf := bufferLogger()
	d := NewLogging(logger)

	for _, err := range exercise(d) {
		if err != nil {
			t.Errorf("logging delegate returned %v", err)
		}
	}
	if c, err := d.GetItem(0); err != nil || c != pixel.Black {
		t.Errorf("GetItem = %v, %v", c, err)
	}
	if b, _ := d.Brightness(); b != 0.4 {
		t.Errorf("Brightness = %v, want 0.4", b)
	}

	out := buf.String()
	for _, want := range []string{"init", "fill", "#ff000000", "set item", "index=-1", "set brightness", "show"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLoggingReadBacksAtDebug(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogging(hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Info}))

	d.GetItem(2)
	d.Brightness()
	if buf.Len() != 0 {
		t.Errorf("read-backs logged at info:\n%s", buf.String())
	}

	d.Show()
	if !strings.Contains(buf.String(), "show") {
		t.Errorf("mutation not logged at info:\n%s", buf.String())
	}
}

func TestDirect(t *testing.T) {
	d := NewDirect(nil, nil)
	defer d.Close()

	if err := d.Fill(pixel.RGBW(1, 1, 1, 1)); !errors.Is(err, worker.ErrNotInitialised) {
		t.Errorf("Fill before Init error = %v", err)
	}
	for _, err := range exercise(d) {
		if err != nil {
			t.Fatalf("direct delegate returned %v", err)
		}
	}

	if c, _ := d.GetItem(0); c != pixel.RGBW(255, 0, 0, 0) {
		t.Errorf("GetItem(0) = %v", c)
	}
	if c, _ := d.GetItem(3); c != pixel.RGBW(0, 0, 255, 7) {
		t.Errorf("GetItem(3) = %v", c)
	}
	if _, err := d.GetItem(4); !errors.Is(err, pixel.ErrIndexOutOfRange) {
		t.Errorf("GetItem(4) error = %v", err)
	}
	if b, _ := d.Brightness(); b != 0.4 {
		t.Errorf("Brightness = %v", b)
	}
}

func TestHTTPAgainstWorker(t *testing.T) {
	w := newWorker(t)
	srv := httptest.NewServer(w.Handler())
	defer srv.Close()

	d, err := NewHTTP(srv.URL+"/", HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTP error = %v", err)
	}
	if d.URL() != srv.URL {
		t.Errorf("URL() = %q, want trailing slash trimmed", d.URL())
	}

	for _, err := range exercise(d) {
		if err != nil {
			t.Fatalf("http delegate returned %v", err)
		}
	}

	if c, err := d.GetItem(3); err != nil || c != pixel.RGBW(0, 0, 255, 7) {
		t.Errorf("GetItem(3) = %v, %v", c, err)
	}
	if c, _ := w.Pixel(1); c != pixel.RGBW(255, 0, 0, 0) {
		t.Errorf("worker pixel 1 = %v", c)
	}
	if b, err := d.Brightness(); err != nil || b != 0.4 {
		t.Errorf("Brightness = %v, %v", b, err)
	}

	_, err = d.GetItem(10)
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Errorf("out of range GetItem error = %v, want a worker rejection", err)
	}
}

func TestHTTPConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	d, err := NewHTTP(url, HTTPOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTP error = %v", err)
	}

	for i, err := range exercise(d) {
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("operation %d error = %v, want ErrUnavailable", i, err)
		}
	}
	if c, err := d.GetItem(0); !errors.Is(err, ErrUnavailable) || c != pixel.Black {
		t.Errorf("GetItem = %v, %v", c, err)
	}
	if b, err := d.Brightness(); !errors.Is(err, ErrUnavailable) || b != 0 {
		t.Errorf("Brightness = %v, %v", b, err)
	}
}

func TestSocketDegraded(t *testing.T) {
	logger, buf := bufferLogger()
	d := NewSocket(filepath.Join(t.TempDir(), "missing.sock"), logger)

	for i, err := range exercise(d) {
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("operation %d error = %v, want ErrNotConnected", i, err)
		}
	}
	if !strings.Contains(buf.String(), "failed to connect to worker") {
		t.Errorf("connect failure not logged:\n%s", buf.String())
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close on degraded socket = %v", err)
	}
}

func TestSocketPeerGone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "np.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		if conn, err := l.Accept(); err == nil {
			conn.Close()
		}
	}()

	d := NewSocket(path, nil)
	if !d.Connected() {
		t.Fatal("socket delegate did not connect")
	}
	<-closed

	for i := range 3 {
		if err := d.Fill(pixel.RGBW(1, 2, 3, 0)); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Fill %d after peer closed error = %v, want ErrUnavailable", i, err)
		}
	}
	if err := d.Show(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Show after peer closed error = %v, want ErrUnavailable", err)
	}
	if !d.Connected() {
		t.Error("delegate dropped its connection instead of staying bound")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close after peer closed = %v", err)
	}
}

func TestSocketAgainstWorker(t *testing.T) {
	w := newWorker(t)
	path := filepath.Join(t.TempDir(), "np.sock")
	if err := w.Listen(path); err != nil {
		t.Fatalf("Listen error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Serve(ctx)

	d := NewSocket(path, nil)
	if !d.Connected() {
		t.Fatal("socket delegate did not connect")
	}
	for _, err := range exercise(d) {
		if err != nil {
			t.Fatalf("socket delegate returned %v", err)
		}
	}
	if _, err := d.GetItem(0); !errors.Is(err, ErrNotSupported) {
		t.Errorf("GetItem error = %v, want ErrNotSupported", err)
	}
	if _, err := d.Brightness(); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Brightness error = %v, want ErrNotSupported", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		c, _ := w.Pixel(3)
		b, _ := w.Brightness()
		if c == pixel.RGBW(0, 0, 255, 7) && b == 0.4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("worker state not updated: pixel 3 = %v, brightness = %v", c, b)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := d.Fill(pixel.Black); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Fill after Close error = %v, want ErrNotConnected", err)
	}
}
