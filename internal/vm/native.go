package vm

import (
	"github.com/funvibe/bfjit/internal/jit"
)

// Native is the machine code for a chunk's mutate ops. funcs is indexed by
// op offset; ops without an entry fall back to the interpreted handler.
type Native struct {
	code      *jit.Code
	funcs     []jit.Func
	Fragments int
}

// CompileNative assembles one fragment per distinct mutate op and maps
// them into executable memory.
func CompileNative(chunk *Chunk) (*Native, error) {
	if !jit.Supported {
		return nil, jit.ErrUnsupported
	}
	a := jit.NewAssembler()
	entries := make([]int, len(chunk.Code))
	for i, op := range chunk.Code {
		entries[i] = -1
		switch op.Code {
		case OP_CELL:
			// cells are 32 bits wide, so truncating the delta wraps the same way
			entries[i] = a.Emit(jit.CellAdd, int32(op.Arg))
		case OP_INDEX:
			if jit.FitsInt32(op.Arg) {
				entries[i] = a.Emit(jit.IndexAdd, int32(op.Arg))
			}
		}
	}

	code, err := jit.Finalize(a.Bytes())
	if err != nil {
		return nil, err
	}
	n := &Native{code: code, funcs: make([]jit.Func, len(chunk.Code)), Fragments: a.Fragments()}
	for i, off := range entries {
		if off < 0 {
			continue
		}
		fn, err := code.Func(off)
		if err != nil {
			_ = code.Release()
			return nil, err
		}
		n.funcs[i] = fn
	}
	return n, nil
}

// Release unmaps the code.
func (n *Native) Release() error {
	n.funcs = nil
	return n.code.Release()
}
