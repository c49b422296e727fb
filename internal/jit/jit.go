// Package jit emits x86-64 fragments for the two mutate instructions and
// maps them into executable memory. All unsafe code in the module lives
// here.
package jit

import (
	"errors"
	"math"
)

var (
	ErrUnsupported = errors.New("native mode not supported on this platform")
	ErrMap         = errors.New("cannot map code buffer")
	ErrReleased    = errors.New("code released")
)

// State is the memory block a fragment operates on. Field offsets are
// baked into the emitted code: Cells at 0, Cursor at 8, Length at 16.
type State struct {
	Cells  *int32
	Cursor int64
	Length int64
}

// Func is an entry point into mapped code. It returns 0 on success and -1
// when an index fragment would move the cursor off the tape.
type Func func(s *State) int64

// Kind selects the fragment template.
type Kind uint8

const (
	CellAdd  Kind = iota // cells[cursor] += delta
	IndexAdd             // cursor += delta, bounds checked
)

// FitsInt32 reports whether v can be an immediate operand.
func FitsInt32(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
