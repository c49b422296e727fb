// Package ext exposes the instruction and pass types so code outside this
// module can write compile passes.
package ext

import (
	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/pass"
)

// Instruction types aliases
type Instruction = ir.Instruction
type Kind = ir.Kind

const (
	CellMutate  = ir.CellMutate
	IndexMutate = ir.IndexMutate
	Output      = ir.Output
	Input       = ir.Input
	Loop        = ir.Loop
)

// Pass types aliases
type Pass = pass.Pass
type Analyser = pass.Analyser
type Transformer = pass.Transformer
type AnalyseFunc = pass.AnalyseFunc
type TransformFunc = pass.TransformFunc

// Helpers for creating instructions

func NewCellMutate(delta int) Instruction  { return ir.NewCellMutate(delta) }
func NewIndexMutate(delta int) Instruction { return ir.NewIndexMutate(delta) }
func NewOutput(count int) Instruction      { return ir.NewOutput(count) }
func NewInput(count int) Instruction       { return ir.NewInput(count) }

// LookupPass returns a fresh built-in pass by name.
func LookupPass(name string) (Pass, error) {
	return pass.Lookup(name)
}

// PassNames lists the built-in passes.
func PassNames() []string {
	return pass.Names()
}
