package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable representation of the chunk
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	depth := 0
	for offset, op := range chunk.Code {
		if op.Code == OP_LOOP_IF_NONZERO && depth > 0 {
			depth--
		}
		sb.WriteString(fmt.Sprintf("%04d ", offset))
		sb.WriteString(strings.Repeat("  ", depth))

		switch op.Code {
		case OP_CELL, OP_INDEX:
			sb.WriteString(fmt.Sprintf("%-16s %+d\n", op.Code, op.Arg))
		case OP_OUTPUT, OP_INPUT:
			sb.WriteString(fmt.Sprintf("%-16s x%d\n", op.Code, op.Arg))
		case OP_JUMP_IF_ZERO, OP_LOOP_IF_NONZERO:
			sb.WriteString(fmt.Sprintf("%-16s -> %04d\n", op.Code, op.Target))
		default:
			sb.WriteString(fmt.Sprintf("Unknown opcode %d\n", op.Code))
		}

		if op.Code == OP_JUMP_IF_ZERO {
			depth++
		}
	}

	return sb.String()
}
