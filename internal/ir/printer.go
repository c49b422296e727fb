package ir

import (
	"fmt"
	"strings"
)

// Format renders the instruction tree, one instruction per line, with
// loop bodies indented.
func Format(s *Script) string {
	var sb strings.Builder
	err := s.Walk(func(_ Index, in Instruction, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(in.String())
		sb.WriteByte('\n')
		return true
	})
	if err != nil {
		return fmt.Sprintf("<%v>\n", err)
	}
	return sb.String()
}

// Source renders the tree back into canonical program text. Compiling the
// result yields the same tree when no passes are involved.
func Source(s *Script) string {
	if s.Released() {
		return ""
	}
	var sb strings.Builder
	writeSource(&sb, s, s.root)
	return sb.String()
}

func writeSource(sb *strings.Builder, s *Script, seq []Index) {
	for _, i := range seq {
		in := s.nodes[i]
		switch in.Kind {
		case CellMutate:
			writeRun(sb, in.Arg, '+', '-')
		case IndexMutate:
			writeRun(sb, in.Arg, '>', '<')
		case Output:
			sb.WriteString(strings.Repeat(".", in.Arg))
		case Input:
			sb.WriteString(strings.Repeat(",", in.Arg))
		case Loop:
			sb.WriteByte('[')
			writeSource(sb, s, in.Body)
			sb.WriteByte(']')
		}
	}
}

func writeRun(sb *strings.Builder, delta int, up, down byte) {
	ch := up
	if delta < 0 {
		ch = down
		delta = -delta
	}
	for range delta {
		sb.WriteByte(ch)
	}
}
