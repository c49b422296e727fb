// Package ir defines the instruction tree produced by the compiler and
// consumed by passes and execution engines.
package ir

import (
	"errors"
	"fmt"
)

// Kind identifies the operation an Instruction performs.
type Kind uint8

const (
	CellMutate  Kind = iota + 1 // tape[cursor] += Arg
	IndexMutate                 // cursor += Arg
	Output                      // write tape[cursor] Arg times
	Input                       // read into tape[cursor] Arg times
	Loop                        // run Body while tape[cursor] != 0
)

// KindNames maps kinds to their display names
var KindNames = map[Kind]string{
	CellMutate:  "CELL",
	IndexMutate: "INDEX",
	Output:      "OUTPUT",
	Input:       "INPUT",
	Loop:        "LOOP",
}

func (k Kind) String() string {
	if name, ok := KindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Index addresses an Instruction inside its Script's arena.
type Index int32

// Instruction is one node of the tree.
//
// Arg is the signed delta for CellMutate and IndexMutate and the repetition
// count for Output and Input. Body holds the children of a Loop.
type Instruction struct {
	Kind Kind
	Arg  int
	Body []Index
}

var ErrInvalidInstruction = errors.New("invalid instruction")

func NewCellMutate(delta int) Instruction  { return Instruction{Kind: CellMutate, Arg: delta} }
func NewIndexMutate(delta int) Instruction { return Instruction{Kind: IndexMutate, Arg: delta} }
func NewOutput(count int) Instruction      { return Instruction{Kind: Output, Arg: count} }
func NewInput(count int) Instruction       { return Instruction{Kind: Input, Arg: count} }
func NewLoop() Instruction                 { return Instruction{Kind: Loop} }

// IsLeaf reports whether the instruction executes a single operation.
func (in Instruction) IsLeaf() bool {
	return in.Kind != Loop
}

// Validate checks operand invariants. Leaves carry no body. A loop body is
// not checked here: the builder replaces it and the decoder checks indices.
func (in Instruction) Validate() error {
	switch in.Kind {
	case CellMutate, IndexMutate:
	case Output, Input:
		if in.Arg < 1 {
			return fmt.Errorf("%w: %s count %d", ErrInvalidInstruction, in.Kind, in.Arg)
		}
	case Loop:
		if in.Arg != 0 {
			return fmt.Errorf("%w: LOOP with operand %d", ErrInvalidInstruction, in.Arg)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidInstruction, in.Kind)
	}
	if len(in.Body) != 0 {
		return fmt.Errorf("%w: %s with a body", ErrInvalidInstruction, in.Kind)
	}
	return nil
}

func (in Instruction) String() string {
	switch in.Kind {
	case CellMutate, IndexMutate:
		return fmt.Sprintf("%s %+d", in.Kind, in.Arg)
	case Output, Input:
		return fmt.Sprintf("%s x%d", in.Kind, in.Arg)
	case Loop:
		return fmt.Sprintf("%s [%d]", in.Kind, len(in.Body))
	default:
		return in.Kind.String()
	}
}
