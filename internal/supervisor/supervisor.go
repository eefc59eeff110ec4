// Package supervisor starts the privileged worker through an Elevator and
// stops it again on shutdown. At most one worker is recorded at a time and
// it is never restarted automatically.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-ps"

	"github.com/jmylchreest/neopixel/internal/logging"
	"github.com/jmylchreest/neopixel/internal/secret"
	"github.com/jmylchreest/neopixel/internal/security"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for the worker.
const DefaultShutdownTimeout = 10 * time.Second

// ErrNoCredential is returned by Start when no elevation credential is set.
var ErrNoCredential = errors.New("no elevation credential configured")

// Config configures a Supervisor.
type Config struct {
	// WorkerCommand is the worker executable followed by its arguments.
	WorkerCommand []string

	// LogPath is passed to the worker with -l.
	LogPath string

	// ShutdownTimeout bounds the wait after kill. Zero uses
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// ProcessAlive reports whether pid is still running. Nil uses
	// ProcessAlive.
	ProcessAlive func(pid int) (bool, error)

	Logger hclog.Logger
}

// Handle describes the recorded worker.
type Handle struct {
	PID     int
	LogPath string
	Started time.Time
}

// Supervisor owns the worker process and the credential used to start and
// stop it.
type Supervisor struct {
	elevator Elevator
	cfg      Config
	logger   hclog.Logger

	mu         sync.Mutex
	credential *secret.Buffer
	handle     *Handle
	exited     chan struct{}
}

// New creates a supervisor. The worker is not started.
func New(elevator Elevator, cfg Config) (*Supervisor, error) {
	if elevator == nil {
		return nil, fmt.Errorf("elevator is required")
	}
	if err := security.ValidateArgv(cfg.WorkerCommand); err != nil {
		return nil, fmt.Errorf("invalid worker command: %w", err)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = logging.DefaultWorkerLogPath
	}
	if err := security.ValidateAbsPath(cfg.LogPath); err != nil {
		return nil, fmt.Errorf("invalid worker log path: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.ProcessAlive == nil {
		cfg.ProcessAlive = ProcessAlive
	}

	return &Supervisor{
		elevator: elevator,
		cfg:      cfg,
		logger:   logging.OrNull(cfg.Logger).Named("supervisor"),
	}, nil
}

// ProcessAlive looks pid up in the process table.
func ProcessAlive(pid int) (bool, error) {
	p, err := ps.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("failed to inspect process %d: %w", pid, err)
	}
	return p != nil, nil
}

// SetCredential replaces the elevation credential. The supervisor takes
// ownership of buf and closes the previous one.
func (s *Supervisor) SetCredential(buf *secret.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credential != nil && s.credential != buf {
		s.credential.Close()
	}
	s.credential = buf
}

// HasCredential reports whether a credential is set.
func (s *Supervisor) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != nil && s.credential.Len() > 0
}

// Argv returns the worker command line passed to the elevator.
func (s *Supervisor) Argv() []string {
	argv := make([]string, 0, len(s.cfg.WorkerCommand)+2)
	argv = append(argv, s.cfg.WorkerCommand...)
	return append(argv, "-l", s.cfg.LogPath)
}

// Handle returns the recorded worker, if any.
func (s *Supervisor) Handle() (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return Handle{}, false
	}
	return *s.handle, true
}

// Start launches the worker unless one is already recorded.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		s.logger.Info("worker already running", "pid", s.handle.PID)
		return nil
	}

	credential, err := s.credentialBytes()
	if err != nil {
		return err
	}
	defer secret.Zero(credential)

	argv := s.Argv()
	proc, err := s.elevator.Start(ctx, credential, argv)
	if err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	s.handle = &Handle{PID: proc.PID(), LogPath: s.cfg.LogPath, Started: time.Now()}
	exited := make(chan struct{})
	s.exited = exited

	go func(pid int) {
		defer close(exited)
		if err := proc.Wait(); err != nil {
			s.logger.Debug("worker exited", "pid", pid, "error", err)
			return
		}
		s.logger.Debug("worker exited", "pid", pid)
	}(s.handle.PID)

	s.logger.Info("worker started", "pid", s.handle.PID, "log", s.cfg.LogPath)
	return nil
}

// Shutdown kills the recorded worker and waits up to the shutdown timeout
// for it to exit. A missing worker is not an error and failures are only
// logged.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		s.logger.Info("worker not running")
		return
	}
	pid, exited := s.handle.PID, s.exited
	defer func() {
		s.handle = nil
		s.exited = nil
	}()

	if alive, err := s.cfg.ProcessAlive(pid); err != nil {
		s.logger.Debug("failed to check worker", "pid", pid, "error", err)
	} else if !alive {
		s.logger.Info("worker already exited", "pid", pid)
		return
	}

	credential, err := s.credentialBytes()
	if err != nil {
		s.logger.Error("failed to stop worker", "pid", pid, "error", err)
		return
	}
	defer secret.Zero(credential)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.elevator.Run(ctx, credential, []string{"kill", strconv.Itoa(pid)}); err != nil {
		s.logger.Error("failed to stop worker", "pid", pid, "error", err)
		return
	}

	select {
	case <-exited:
		s.logger.Info("worker stopped", "pid", pid)
	case <-ctx.Done():
		s.logger.Warn("timed out waiting for worker to exit", "pid", pid, "timeout", s.cfg.ShutdownTimeout)
	}
}

// Close releases the credential.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credential == nil {
		return nil
	}
	err := s.credential.Close()
	s.credential = nil
	return err
}

func (s *Supervisor) credentialBytes() ([]byte, error) {
	if s.credential == nil || s.credential.Len() == 0 {
		return nil, ErrNoCredential
	}
	b, err := s.credential.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return b, nil
}
