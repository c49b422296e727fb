package ir

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"
)

// scriptWire is the serialized form of a Script.
type scriptWire struct {
	ID    [16]byte
	Nodes []Instruction
	Root  []Index
}

// GobEncode implements gob.GobEncoder.
func (s *Script) GobEncode() ([]byte, error) {
	if s.released {
		return nil, ErrReleased
	}
	var buf bytes.Buffer
	w := scriptWire{ID: s.ID, Nodes: s.nodes, Root: s.root}
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The decoded tree is checked so that
// every index is in range and every instruction has exactly one parent.
func (s *Script) GobDecode(data []byte) error {
	var w scriptWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	seen := make([]bool, len(w.Nodes))
	claim := func(i Index) error {
		if i < 0 || int(i) >= len(w.Nodes) {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidInstruction, i)
		}
		if seen[i] {
			return fmt.Errorf("%w: index %d linked twice", ErrInvalidInstruction, i)
		}
		seen[i] = true
		return nil
	}
	for _, i := range w.Root {
		if err := claim(i); err != nil {
			return err
		}
	}
	for n, in := range w.Nodes {
		if in.Kind == Loop {
			if in.Arg != 0 {
				return fmt.Errorf("%w: node %d: LOOP with operand", ErrInvalidInstruction, n)
			}
			for _, i := range in.Body {
				if err := claim(i); err != nil {
					return err
				}
			}
			continue
		}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
	}

	s.ID = uuid.UUID(w.ID)
	s.nodes = w.Nodes
	s.root = w.Root
	s.released = false
	return nil
}
