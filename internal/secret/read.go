package secret

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by Prompt when fd is not a terminal.
var ErrNotTerminal = errors.New("secret: not a terminal")

// Prompt writes prompt to out and reads a line from the terminal at fd with
// echo disabled.
func Prompt(fd int, out io.Writer, prompt string) (*Buffer, error) {
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	fmt.Fprint(out, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("secret: reading password: %w", err)
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret: empty password")
	}
	return NewFromBytes(trimmed)
}
