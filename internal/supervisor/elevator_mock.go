package supervisor

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// MockElevator is an Elevator for tests. Started processes stay alive until
// a "kill <pid>" command is run for them or Exit is called.
type MockElevator struct {
	// StartFunc overrides Start when set.
	StartFunc func(ctx context.Context, credential []byte, argv []string) (Process, error)

	// RunFunc overrides Run when set.
	RunFunc func(ctx context.Context, credential []byte, argv []string) error

	// IgnoreKill leaves processes running when kill is run, simulating a
	// worker that does not exit.
	IgnoreKill bool

	mu             sync.Mutex
	nextPID        int
	processes      map[int]*MockProcess
	startCount     int
	runCount       int
	lastStartArgv  []string
	lastRunArgv    []string
	lastCredential string
}

// NewMockElevator creates a mock whose first process has pid 4242.
func NewMockElevator() *MockElevator {
	return &MockElevator{nextPID: 4242, processes: make(map[int]*MockProcess)}
}

// NewErrorMockElevator creates a mock whose commands all fail with msg.
func NewErrorMockElevator(msg string) *MockElevator {
	m := NewMockElevator()
	m.StartFunc = func(context.Context, []byte, []string) (Process, error) {
		return nil, errors.New(msg)
	}
	m.RunFunc = func(context.Context, []byte, []string) error {
		return errors.New(msg)
	}
	return m
}

// Start records the call and returns a running MockProcess.
func (m *MockElevator) Start(ctx context.Context, credential []byte, argv []string) (Process, error) {
	m.mu.Lock()
	m.startCount++
	m.lastStartArgv = append([]string(nil), argv...)
	m.lastCredential = string(credential)
	fn := m.StartFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential, argv)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := &MockProcess{pid: m.nextPID, done: make(chan struct{})}
	m.processes[p.pid] = p
	m.nextPID++
	return p, nil
}

// Run records the call. "kill <pid>" exits the matching process.
func (m *MockElevator) Run(ctx context.Context, credential []byte, argv []string) error {
	m.mu.Lock()
	m.runCount++
	m.lastRunArgv = append([]string(nil), argv...)
	m.lastCredential = string(credential)
	fn := m.RunFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential, argv)
	}

	if len(argv) == 2 && argv[0] == "kill" && !m.IgnoreKill {
		pid, err := strconv.Atoi(argv[1])
		if err != nil {
			return err
		}
		if p := m.Process(pid); p != nil {
			p.Exit(errors.New("signal: terminated"))
		}
	}
	return nil
}

// Process returns the started process with pid, or nil.
func (m *MockElevator) Process(pid int) *MockProcess {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processes[pid]
}

// StartCount returns how many times Start was called.
func (m *MockElevator) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCount
}

// RunCount returns how many times Run was called.
func (m *MockElevator) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runCount
}

// LastStartArgv returns the argv of the last Start.
func (m *MockElevator) LastStartArgv() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStartArgv
}

// LastRunArgv returns the argv of the last Run.
func (m *MockElevator) LastRunArgv() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRunArgv
}

// LastCredential returns the credential passed to the last call.
func (m *MockElevator) LastCredential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCredential
}

// MockProcess is a process started by MockElevator.
type MockProcess struct {
	pid  int
	once sync.Once
	done chan struct{}
	err  error
}

// PID returns the fake pid.
func (p *MockProcess) PID() int {
	return p.pid
}

// Wait blocks until Exit is called.
func (p *MockProcess) Wait() error {
	<-p.done
	return p.err
}

// Exit ends the process with err.
func (p *MockProcess) Exit(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Exited reports whether the process has exited.
func (p *MockProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
