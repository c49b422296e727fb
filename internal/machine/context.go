// Package machine holds the execution state a program runs against: the
// tape, the cursor and the byte-stream Environment.
package machine

import (
	"errors"
	"fmt"
	"io"

	"github.com/funvibe/bfjit/internal/config"
)

var (
	ErrIO          = errors.New("i/o error")
	ErrCursorRange = errors.New("cursor out of range")
	ErrTapeLength  = errors.New("invalid tape length")
)

// Cell is the value type of one tape cell. Arithmetic wraps.
type Cell = int32

// EOFPolicy decides what Input stores when the Environment is exhausted.
type EOFPolicy uint8

const (
	EOFZero      EOFPolicy = iota // store 0
	EOFMinusOne                   // store -1
	EOFUnchanged                  // leave the cell as it is
)

// ParseEOFPolicy maps config names to policies.
func ParseEOFPolicy(name string) (EOFPolicy, error) {
	switch name {
	case config.EOFZero, "":
		return EOFZero, nil
	case config.EOFMinusOne:
		return EOFMinusOne, nil
	case config.EOFUnchanged:
		return EOFUnchanged, nil
	}
	return 0, fmt.Errorf("unknown eof policy %q", name)
}

// Context is the mutable state of one run. It is not safe for concurrent use.
type Context struct {
	Tape   []Cell
	Cursor int
	Env    Environment
	EOF    EOFPolicy
}

// New creates a context with a zeroed tape of the given length.
func New(length int, env Environment) (*Context, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTapeLength, length)
	}
	return &Context{
		Tape: make([]Cell, length),
		Env:  env,
	}, nil
}

// NewDefault creates the default context: DefaultTapeLength cells bound to
// standard input and output.
func NewDefault() *Context {
	return &Context{
		Tape: make([]Cell, config.DefaultTapeLength),
		Env:  Stdio(),
	}
}

// Current returns the cell under the cursor.
func (c *Context) Current() Cell {
	return c.Tape[c.Cursor]
}

// Move shifts the cursor by delta. Moving outside the tape fails with
// ErrCursorRange and leaves the cursor where it was.
func (c *Context) Move(delta int) error {
	next := c.Cursor + delta
	if next < 0 || next >= len(c.Tape) {
		return fmt.Errorf("%w: %d%+d outside [0,%d)", ErrCursorRange, c.Cursor, delta, len(c.Tape))
	}
	c.Cursor = next
	return nil
}

// Add adds delta to the current cell.
func (c *Context) Add(delta int) {
	c.Tape[c.Cursor] += Cell(delta)
}

// Write sends the current cell to the Environment count times.
func (c *Context) Write(count int) error {
	b := byte(c.Tape[c.Cursor])
	for range count {
		if err := c.Env.WriteByte(b); err != nil {
			return fmt.Errorf("%w: write: %w", ErrIO, err)
		}
	}
	return nil
}

// Read reads count bytes from the Environment into the current cell.
// End of stream is not an error; it applies the EOF policy.
func (c *Context) Read(count int) error {
	for range count {
		b, err := c.Env.ReadByte()
		switch {
		case err == nil:
			c.Tape[c.Cursor] = Cell(b)
		case errors.Is(err, io.EOF):
			switch c.EOF {
			case EOFZero:
				c.Tape[c.Cursor] = 0
			case EOFMinusOne:
				c.Tape[c.Cursor] = -1
			}
		default:
			return fmt.Errorf("%w: read: %w", ErrIO, err)
		}
	}
	return nil
}

// Flush flushes the Environment if it buffers output.
func (c *Context) Flush() error {
	if f, ok := c.Env.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush: %w", ErrIO, err)
		}
	}
	return nil
}

// Release flushes pending output and drops the tape.
func (c *Context) Release() error {
	err := c.Flush()
	c.Tape = nil
	c.Cursor = 0
	return err
}
