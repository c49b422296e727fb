package machine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Environment supplies the byte streams used by Input and Output.
// ReadByte returns io.EOF at end of stream; any other error, and any
// WriteByte error, aborts execution.
type Environment interface {
	io.ByteReader
	io.ByteWriter
}

// Flusher is implemented by environments that buffer output.
type Flusher interface {
	Flush() error
}

// StreamEnv adapts a reader and a writer into a buffered Environment.
type StreamEnv struct {
	in        *bufio.Reader
	out       *bufio.Writer
	lineFlush bool
}

// NewStreamEnv wraps r and w. With lineFlush set, output is flushed after
// every newline byte.
func NewStreamEnv(r io.Reader, w io.Writer, lineFlush bool) *StreamEnv {
	return &StreamEnv{
		in:        bufio.NewReader(r),
		out:       bufio.NewWriter(w),
		lineFlush: lineFlush,
	}
}

func (e *StreamEnv) ReadByte() (byte, error) {
	// pending prompts must be visible before blocking on input
	if e.out.Buffered() > 0 {
		if err := e.out.Flush(); err != nil {
			return 0, err
		}
	}
	return e.in.ReadByte()
}

func (e *StreamEnv) WriteByte(c byte) error {
	if err := e.out.WriteByte(c); err != nil {
		return err
	}
	if e.lineFlush && c == '\n' {
		return e.out.Flush()
	}
	return nil
}

func (e *StreamEnv) Flush() error {
	return e.out.Flush()
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var stdio *StreamEnv

// Stdio returns the process-wide Environment bound to standard input and
// output. Output is line-flushed when stdout is a terminal.
func Stdio() *StreamEnv {
	if stdio == nil {
		stdio = NewStreamEnv(os.Stdin, os.Stdout, isTerminal(os.Stdout))
	}
	return stdio
}

// BufferEnv is an in-memory Environment.
type BufferEnv struct {
	In  *bytes.Reader
	Out bytes.Buffer

	// Writes counts WriteByte calls.
	Writes int
}

// NewBufferEnv creates an environment reading from input.
func NewBufferEnv(input []byte) *BufferEnv {
	return &BufferEnv{In: bytes.NewReader(input)}
}

func (e *BufferEnv) ReadByte() (byte, error) {
	return e.In.ReadByte()
}

func (e *BufferEnv) WriteByte(c byte) error {
	e.Writes++
	return e.Out.WriteByte(c)
}

// cancelEnv fails reads and writes once its context is done.
type cancelEnv struct {
	ctx context.Context
	env Environment
}

// WithContext wraps env so that ReadByte and WriteByte report ctx.Err()
// after ctx is done. This is the only way to abort a running program.
func WithContext(ctx context.Context, env Environment) Environment {
	return &cancelEnv{ctx: ctx, env: env}
}

func (e *cancelEnv) ReadByte() (byte, error) {
	if err := e.ctx.Err(); err != nil {
		return 0, err
	}
	return e.env.ReadByte()
}

func (e *cancelEnv) WriteByte(c byte) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	return e.env.WriteByte(c)
}

func (e *cancelEnv) Flush() error {
	if f, ok := e.env.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
