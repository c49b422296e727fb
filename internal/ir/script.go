package ir

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrReleased   = errors.New("script released")
	ErrArenaFull  = errors.New("instruction arena full")
	ErrUnbalanced = errors.New("loop close without open")
	ErrUnclosed   = errors.New("loop left open")
)

// Script is a compiled program: an arena of instructions addressed by
// Index plus the ordered top-level sequence. It is immutable once built.
type Script struct {
	// ID identifies this compilation in log output.
	ID uuid.UUID

	nodes    []Instruction
	root     []Index
	released bool
}

// Root returns the top-level instruction sequence.
func (s *Script) Root() []Index {
	return s.root
}

// At returns the instruction stored at i.
func (s *Script) At(i Index) Instruction {
	return s.nodes[i]
}

// Len returns the number of instructions in the arena, nested ones included.
func (s *Script) Len() int {
	return len(s.nodes)
}

// Released reports whether Release has been called.
func (s *Script) Released() bool {
	return s.released
}

// Release drops the instruction arena. The Script must not be run afterwards.
func (s *Script) Release() {
	s.nodes = nil
	s.root = nil
	s.released = true
}

// Walk visits every instruction in program order, loops before their
// bodies. Returning false from visit skips the body of a Loop.
func (s *Script) Walk(visit func(i Index, in Instruction, depth int) bool) error {
	if s.released {
		return ErrReleased
	}
	s.walk(s.root, 0, visit)
	return nil
}

func (s *Script) walk(seq []Index, depth int, visit func(Index, Instruction, int) bool) {
	for _, i := range seq {
		in := s.nodes[i]
		if !visit(i, in, depth) {
			continue
		}
		if in.Kind == Loop {
			s.walk(in.Body, depth+1, visit)
		}
	}
}

// frame is one open loop on the builder stack.
type frame struct {
	loop     Index
	detached bool
	offset   int
}

// Builder assembles a Script. Instructions are linked into the body of the
// innermost open loop, or into the top level when no loop is open.
type Builder struct {
	nodes  []Instruction
	root   []Index
	frames []frame
	limit  int
}

// NewBuilder creates a builder. A positive limit caps the arena size.
func NewBuilder(limit int) *Builder {
	return &Builder{
		nodes: make([]Instruction, 0, 64),
		root:  make([]Index, 0, 64),
		limit: limit,
	}
}

// Depth returns the number of open loops.
func (b *Builder) Depth() int {
	return len(b.frames)
}

// OpenOffset returns the source offset recorded for the innermost open loop.
func (b *Builder) OpenOffset() int {
	if len(b.frames) == 0 {
		return -1
	}
	return b.frames[len(b.frames)-1].offset
}

// Detached reports whether the innermost open loop is discarded, either
// dropped by the passes or replaced by a leaf.
func (b *Builder) Detached() bool {
	return len(b.frames) > 0 && b.frames[len(b.frames)-1].detached
}

func (b *Builder) link(in Instruction) (Index, error) {
	if b.limit > 0 && len(b.nodes) >= b.limit {
		return 0, fmt.Errorf("%w: limit %d", ErrArenaFull, b.limit)
	}
	idx := Index(len(b.nodes))
	b.nodes = append(b.nodes, in)
	if len(b.frames) == 0 {
		b.root = append(b.root, idx)
	} else {
		parent := b.frames[len(b.frames)-1].loop
		b.nodes[parent].Body = append(b.nodes[parent].Body, idx)
	}
	return idx, nil
}

// Append links a leaf instruction into the current body. Inside a detached
// loop the instruction is discarded.
func (b *Builder) Append(in Instruction) error {
	if in.Kind == Loop {
		return fmt.Errorf("%w: use OpenLoop for loops", ErrInvalidInstruction)
	}
	if b.Detached() {
		return nil
	}
	_, err := b.link(in)
	return err
}

// OpenLoop starts a loop body. in is what the passes made of the loop and
// keep is false when they dropped it. If the loop is dropped or replaced by
// a leaf, the body that follows is still tracked for balance but never
// linked. offset is remembered for error reporting.
func (b *Builder) OpenLoop(in Instruction, keep bool, offset int) error {
	if b.Detached() || !keep {
		b.frames = append(b.frames, frame{detached: true, offset: offset})
		return nil
	}
	if in.Kind != Loop {
		if _, err := b.link(in); err != nil {
			return err
		}
		b.frames = append(b.frames, frame{detached: true, offset: offset})
		return nil
	}
	in.Body = nil
	idx, err := b.link(in)
	if err != nil {
		return err
	}
	b.frames = append(b.frames, frame{loop: idx, offset: offset})
	return nil
}

// CloseLoop ends the innermost loop body.
func (b *Builder) CloseLoop() error {
	if len(b.frames) == 0 {
		return ErrUnbalanced
	}
	b.frames = b.frames[:len(b.frames)-1]
	return nil
}

// Build returns the finished Script. All loops must be closed.
func (b *Builder) Build() (*Script, error) {
	if len(b.frames) > 0 {
		return nil, fmt.Errorf("%w: %d open", ErrUnclosed, len(b.frames))
	}
	s := &Script{
		ID:    uuid.New(),
		nodes: b.nodes,
		root:  b.root,
	}
	b.nodes = nil
	b.root = nil
	return s, nil
}
