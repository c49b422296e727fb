package vm

import (
	"errors"

	"github.com/funvibe/bfjit/internal/compiler"
	"github.com/funvibe/bfjit/internal/jit"
	"github.com/funvibe/bfjit/internal/machine"
)

// Status codes reported for compile and run results.
const (
	StatusOK      = 0
	StatusEOF     = -1
	StatusNoMem   = -5
	StatusSyntax  = -6
	StatusCursor  = -7
	StatusUnknown = -100
)

// Status maps an error from compilation or execution to its status code.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, machine.ErrIO):
		return StatusEOF
	case errors.Is(err, compiler.ErrOutOfMemory), errors.Is(err, jit.ErrMap):
		return StatusNoMem
	case errors.Is(err, compiler.ErrSyntax):
		return StatusSyntax
	case errors.Is(err, machine.ErrCursorRange):
		return StatusCursor
	}
	return StatusUnknown
}

// StatusName returns a short name for a status code.
func StatusName(code int) string {
	switch code {
	case StatusOK:
		return "ok"
	case StatusEOF:
		return "io"
	case StatusNoMem:
		return "nomem"
	case StatusSyntax:
		return "syntax"
	case StatusCursor:
		return "cursor"
	}
	return "unknown"
}
