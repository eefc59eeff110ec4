package gcode

// Hook decides whether outgoing G-code lines are inspected. Both gates are
// owned by the caller and read on every line.
type Hook struct {
	// Enabled reports whether illumination is enabled.
	Enabled func() bool

	// ParseGcode reports whether G-code should be inspected.
	ParseGcode func() bool
}

// Result is the outcome of Process.
type Result struct {
	// Command is set when Handled is true.
	Command Command

	// Handled is true when line was an M150 command picked up by the hook.
	Handled bool

	// Forward is the line to pass on to the printer. A handled command is
	// consumed and Forward is empty; anything else is passed through
	// unchanged.
	Forward string
}

// Active reports whether both gates are open.
func (h Hook) Active() bool {
	return h.Enabled != nil && h.ParseGcode != nil && h.Enabled() && h.ParseGcode()
}

// Process inspects one line.
func (h Hook) Process(line string) Result {
	if !h.Active() {
		return Result{Forward: line}
	}
	cmd, ok := Parse(line)
	if !ok {
		return Result{Forward: line}
	}
	return Result{Command: cmd, Handled: true}
}
