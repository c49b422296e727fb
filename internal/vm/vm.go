package vm

import (
	"errors"
	"fmt"

	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/jit"
	"github.com/funvibe/bfjit/internal/machine"
)

var (
	ErrNoTape    = errors.New("context has no tape")
	ErrNoContext = errors.New("no execution context")
)

// HandlerFunc executes one non-jump op against the machine.
type HandlerFunc func(m *Machine, op *Op) error

// Handlers is a dispatch table indexed by opcode. Jump opcodes are handled
// by the run loop and have no entry.
type Handlers [numOpcodes]HandlerFunc

var interpretedHandlers = Handlers{
	OP_CELL:   cellMutate,
	OP_INDEX:  indexMutate,
	OP_OUTPUT: output,
	OP_INPUT:  input,
}

var nativeHandlers = Handlers{
	OP_CELL:   nativeCellMutate,
	OP_INDEX:  nativeIndexMutate,
	OP_OUTPUT: output,
	OP_INPUT:  input,
}

// Machine is the state of one run of a Program.
type Machine struct {
	ctx    *machine.Context
	pc     int
	native *Native
	state  jit.State

	// Steps counts executed ops, jumps included
	Steps int
}

func cellMutate(m *Machine, op *Op) error {
	m.ctx.Add(op.Arg)
	return nil
}

func indexMutate(m *Machine, op *Op) error {
	return m.ctx.Move(op.Arg)
}

func output(m *Machine, op *Op) error {
	return m.ctx.Write(op.Arg)
}

func input(m *Machine, op *Op) error {
	return m.ctx.Read(op.Arg)
}

func nativeCellMutate(m *Machine, op *Op) error {
	fn := m.native.funcs[m.pc]
	if fn == nil {
		return cellMutate(m, op)
	}
	m.state.Cursor = int64(m.ctx.Cursor)
	fn(&m.state)
	return nil
}

func nativeIndexMutate(m *Machine, op *Op) error {
	fn := m.native.funcs[m.pc]
	if fn == nil {
		return indexMutate(m, op)
	}
	m.state.Cursor = int64(m.ctx.Cursor)
	if fn(&m.state) != 0 {
		return fmt.Errorf("%w: %d%+d outside [0,%d)", machine.ErrCursorRange, m.ctx.Cursor, op.Arg, len(m.ctx.Tape))
	}
	m.ctx.Cursor = int(m.state.Cursor)
	return nil
}

// Program is a chunk bound to one execution mode. It is reusable across
// runs and must be released to free native code.
type Program struct {
	Chunk    *Chunk
	handlers *Handlers
	native   *Native
	released bool
}

// NewProgram lowers s and prepares it for the interpreted handlers, or for
// the native handlers when native is set.
func NewProgram(s *ir.Script, native bool) (*Program, error) {
	chunk, err := Lower(s)
	if err != nil {
		return nil, err
	}
	p := &Program{Chunk: chunk, handlers: &interpretedHandlers}
	if native {
		n, err := CompileNative(chunk)
		if err != nil {
			return nil, err
		}
		p.native = n
		p.handlers = &nativeHandlers
	}
	return p, nil
}

// Native reports whether the program runs machine code.
func (p *Program) Native() bool {
	return p.native != nil
}

// Run executes the program against ctx. Execution stops at the first
// failing op; the tape keeps every effect up to that point.
func (p *Program) Run(ctx *machine.Context) (*Machine, error) {
	if p.released {
		return nil, ir.ErrReleased
	}
	if ctx == nil {
		return nil, ErrNoContext
	}
	if len(ctx.Tape) == 0 {
		return nil, ErrNoTape
	}
	m := &Machine{ctx: ctx, native: p.native}
	if p.native != nil {
		m.state.Cells = &ctx.Tape[0]
		m.state.Length = int64(len(ctx.Tape))
	}

	code := p.Chunk.Code
	for m.pc < len(code) {
		op := &code[m.pc]
		m.Steps++
		switch op.Code {
		case OP_JUMP_IF_ZERO:
			if ctx.Current() == 0 {
				m.pc = op.Target
				continue
			}
		case OP_LOOP_IF_NONZERO:
			if ctx.Current() != 0 {
				m.pc = op.Target
				continue
			}
		default:
			if err := p.handlers[op.Code](m, op); err != nil {
				return m, err
			}
		}
		m.pc++
	}
	return m, nil
}

// Release frees native code. The program cannot run afterwards.
func (p *Program) Release() error {
	p.released = true
	if p.native == nil {
		return nil
	}
	err := p.native.Release()
	p.native = nil
	return err
}
