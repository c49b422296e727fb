// Package vm runs compiled scripts as a flat sequence of ops.
package vm

// Opcode represents a single flat instruction
type Opcode byte

const (
	OP_CELL           Opcode = iota // cells[cursor] += Arg
	OP_INDEX                        // cursor += Arg
	OP_OUTPUT                       // write cell Arg times
	OP_INPUT                        // read into cell Arg times
	OP_JUMP_IF_ZERO                 // if cell == 0 jump to Target
	OP_LOOP_IF_NONZERO              // if cell != 0 jump back to Target

	numOpcodes
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_CELL:            "CELL",
	OP_INDEX:           "INDEX",
	OP_OUTPUT:          "OUTPUT",
	OP_INPUT:           "INPUT",
	OP_JUMP_IF_ZERO:    "JUMP_IF_ZERO",
	OP_LOOP_IF_NONZERO: "LOOP_IF_NONZERO",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
