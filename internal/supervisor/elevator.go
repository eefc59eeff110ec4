package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/jmylchreest/neopixel/internal/security"
)

// Process is a started privileged process.
type Process interface {
	// PID returns the operating system process id.
	PID() int

	// Wait blocks until the process exits.
	Wait() error
}

// Elevator runs commands as a privileged user. The credential is supplied
// on the tool's stdin and never appears in argv.
type Elevator interface {
	// Start launches a long-running command and returns without waiting.
	Start(ctx context.Context, credential []byte, argv []string) (Process, error)

	// Run executes a short command to completion.
	Run(ctx context.Context, credential []byte, argv []string) error
}

// Sudo elevates with sudo (or a compatible tool) reading the password from
// stdin.
type Sudo struct {
	// Tool is the elevation executable, looked up in PATH.
	Tool string

	// Flag makes the tool read the credential from stdin.
	Flag string

	// Stdout and Stderr receive the started process output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// NewSudo creates an elevator using tool, "sudo" when empty.
func NewSudo(tool string) (*Sudo, error) {
	if tool == "" {
		tool = "sudo"
	}
	if err := security.ValidateExecutableName(tool); err != nil {
		return nil, fmt.Errorf("invalid elevation tool: %w", err)
	}
	return &Sudo{Tool: tool, Flag: "-S"}, nil
}

// Argv returns the full command line for argv.
func (s *Sudo) Argv(argv []string) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, s.Tool)
	if s.Flag != "" {
		out = append(out, s.Flag)
	}
	return append(out, argv...)
}

// prepare attaches the credential to cmd's stdin.
func (s *Sudo) prepare(cmd *exec.Cmd, credential []byte) {
	stdin := make([]byte, 0, len(credential)+1)
	stdin = append(append(stdin, credential...), '\n')
	cmd.Stdin = bytes.NewReader(stdin)
}

// Start launches argv under the elevation tool. The process is not tied to
// ctx: it keeps running until it is killed.
func (s *Sudo) Start(_ context.Context, credential []byte, argv []string) (Process, error) {
	if err := security.ValidateArgv(argv); err != nil {
		return nil, err
	}
	full := s.Argv(argv)
	cmd := exec.Command(full[0], full[1:]...)
	s.prepare(cmd, credential)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", s.Tool, err)
	}
	return &execProcess{cmd: cmd}, nil
}

// Run executes argv under the elevation tool and waits for it.
func (s *Sudo) Run(ctx context.Context, credential []byte, argv []string) error {
	if err := security.ValidateArgv(argv); err != nil {
		return err
	}
	full := s.Argv(argv)
	cmd := exec.CommandContext(ctx, full[0], full[1:]...)
	s.prepare(cmd, credential)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s %s failed: %w: %s", s.Tool, argv[0], err, msg)
		}
		return fmt.Errorf("%s %s failed: %w", s.Tool, argv[0], err)
	}
	return nil
}

type execProcess struct {
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	p.once.Do(func() { p.err = p.cmd.Wait() })
	return p.err
}
