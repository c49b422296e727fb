package vm

import (
	"fmt"

	"github.com/funvibe/bfjit/internal/ir"
)

// Op is one flat instruction. Target is only used by the jump opcodes.
type Op struct {
	Code   Opcode
	Arg    int
	Target int
}

// Chunk is a script lowered to a flat op sequence. Each loop becomes a
// JUMP_IF_ZERO past its body and a LOOP_IF_NONZERO back to its first op.
type Chunk struct {
	Code []Op

	// Name labels the chunk in disassembly and log output
	Name string
}

// NewChunk creates a new empty chunk
func NewChunk(name string) *Chunk {
	return &Chunk{
		Code: make([]Op, 0, 64),
		Name: name,
	}
}

// Len returns the number of ops in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

func (c *Chunk) emit(op Op) int {
	c.Code = append(c.Code, op)
	return len(c.Code) - 1
}

// patchJump points the forward jump at offset past the current end.
func (c *Chunk) patchJump(offset int) {
	c.Code[offset].Target = len(c.Code)
}

// Lower flattens a script into a chunk.
func Lower(s *ir.Script) (*Chunk, error) {
	if s.Released() {
		return nil, ir.ErrReleased
	}
	c := NewChunk(s.ID.String())
	if err := c.lower(s, s.Root()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chunk) lower(s *ir.Script, seq []ir.Index) error {
	for _, i := range seq {
		in := s.At(i)
		switch in.Kind {
		case ir.CellMutate:
			c.emit(Op{Code: OP_CELL, Arg: in.Arg})
		case ir.IndexMutate:
			c.emit(Op{Code: OP_INDEX, Arg: in.Arg})
		case ir.Output:
			c.emit(Op{Code: OP_OUTPUT, Arg: in.Arg})
		case ir.Input:
			c.emit(Op{Code: OP_INPUT, Arg: in.Arg})
		case ir.Loop:
			jump := c.emit(Op{Code: OP_JUMP_IF_ZERO})
			if err := c.lower(s, in.Body); err != nil {
				return err
			}
			c.emit(Op{Code: OP_LOOP_IF_NONZERO, Target: jump + 1})
			c.patchJump(jump)
		default:
			return fmt.Errorf("%w: kind %d at index %d", ir.ErrInvalidInstruction, in.Kind, i)
		}
	}
	return nil
}
