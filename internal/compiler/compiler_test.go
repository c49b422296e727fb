package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/pass"
)

func compile(t *testing.T, source string) *ir.Script {
	t.Helper()
	script, err := Compile(source, nil)
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	return script
}

func rootInstructions(s *ir.Script) []ir.Instruction {
	var out []ir.Instruction
	for _, i := range s.Root() {
		out = append(out, s.At(i))
	}
	return out
}

func TestCompile_RunMerging(t *testing.T) {
	tests := []struct {
		input string
		want  []ir.Instruction
	}{
		{"+++", []ir.Instruction{ir.NewCellMutate(3)}},
		{"+-+--", []ir.Instruction{ir.NewCellMutate(-1)}},
		{">><<<", []ir.Instruction{ir.NewIndexMutate(-1)}},
		{"...", []ir.Instruction{ir.NewOutput(3)}},
		{",,", []ir.Instruction{ir.NewInput(2)}},
		{"+>.,", []ir.Instruction{ir.NewCellMutate(1), ir.NewIndexMutate(1), ir.NewOutput(1), ir.NewInput(1)}},
		{"+ +", []ir.Instruction{ir.NewCellMutate(1), ir.NewCellMutate(1)}},
		{"+++---", nil},
		{"><", nil},
		{"hello world", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := rootInstructions(compile(t, tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("wrong instruction count. got=%d (%v), want=%d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].Kind != tt.want[i].Kind || got[i].Arg != tt.want[i].Arg {
					t.Errorf("instruction %d wrong. got=%s, want=%s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompile_ZeroRunInsideLoopKeepsNeighbours(t *testing.T) {
	s := compile(t, "+[+-.]")
	if got := ir.Source(s); got != "+[.]" {
		t.Errorf("Source() = %q, want %q", got, "+[.]")
	}
}

func TestCompile_Loops(t *testing.T) {
	s := compile(t, "++[>+[-]<-]>.")
	if got := ir.Source(s); got != "++[>+[-]<-]>." {
		t.Errorf("Source() = %q", got)
	}
	root := s.Root()
	if len(root) != 4 {
		t.Fatalf("root length wrong. got=%d, want=4", len(root))
	}
	loop := s.At(root[1])
	if loop.Kind != ir.Loop || len(loop.Body) != 5 {
		t.Fatalf("outer loop wrong: %s", loop)
	}
	if inner := s.At(loop.Body[2]); inner.Kind != ir.Loop || len(inner.Body) != 1 {
		t.Errorf("inner loop wrong: %s", inner)
	}
}

func TestCompile_EmptyLoop(t *testing.T) {
	s := compile(t, "[]")
	if s.Len() != 1 {
		t.Fatalf("arena length wrong. got=%d, want=1", s.Len())
	}
	if in := s.At(s.Root()[0]); in.Kind != ir.Loop || len(in.Body) != 0 {
		t.Errorf("expected empty loop, got %s", in)
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []struct {
		input      string
		line, col  int
		msgContain string
	}{
		{"]", 1, 1, "unmatched"},
		{"[", 1, 1, "unterminated"},
		{"+[[-]", 1, 2, "unterminated"},
		{"++\n-]", 2, 2, "unmatched"},
		{"[]]", 1, 3, "unmatched"},
		{"[\n[\n]", 1, 1, "unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			script, err := Compile(tt.input, nil)
			if script != nil {
				t.Error("a Script was returned alongside a syntax error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("expected ErrSyntax, got %v", err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if se.Line != tt.line || se.Column != tt.col {
				t.Errorf("position wrong. got=%d:%d, want=%d:%d", se.Line, se.Column, tt.line, tt.col)
			}
			if !strings.Contains(se.Msg, tt.msgContain) {
				t.Errorf("message %q does not mention %q", se.Msg, tt.msgContain)
			}
		})
	}
}

func TestCompile_OutOfMemory(t *testing.T) {
	c := New(nil, Options{MaxInstructions: 3})
	if _, err := c.Compile("+>+>"); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}
	if _, err := c.Compile("+>+"); err != nil {
		t.Errorf("three instructions should fit, got %v", err)
	}
}

func TestCompile_PassesSeeEveryInstruction(t *testing.T) {
	var seen []string
	p := pass.New(pass.AnalyseFunc{Label: "spy", Fn: func(in ir.Instruction) {
		seen = append(seen, in.String())
	}})

	if _, err := Compile("++[>.]+-,", p); err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	want := []string{"CELL +2", "LOOP [0]", "INDEX +1", "OUTPUT x1", "INPUT x1"}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Errorf("passes saw %v, want %v", seen, want)
	}
}

func TestCompile_DroppedInstructionsAreNotLinked(t *testing.T) {
	s, err := Compile(",+.,", pass.New(pass.StripInput{}))
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	if got := ir.Source(s); got != "+." {
		t.Errorf("Source() = %q, want %q", got, "+.")
	}
}

func TestCompile_DroppedLoopStillChecksBalance(t *testing.T) {
	dropLoops := pass.TransformFunc{Label: "no-loops", Fn: func(in ir.Instruction) (ir.Instruction, bool) {
		return in, in.Kind != ir.Loop
	}}
	stats := pass.NewStats()
	p := pass.New(dropLoops, stats)

	s, err := Compile("+[->+<[.]]>.", p)
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	if got := ir.Source(s); got != "+>." {
		t.Errorf("Source() = %q, want %q", got, "+>.")
	}
	// passes after the drop only see what was linked
	if stats.Total != 3 || stats.Counts[ir.CellMutate] != 1 || stats.Counts[ir.Output] != 1 {
		t.Errorf("stats saw discarded body: total=%d %v", stats.Total, stats.Counts)
	}

	if _, err := Compile("+[-", p); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax for unterminated dropped loop, got %v", err)
	}
}

func TestCompile_InvalidPassOutput(t *testing.T) {
	broken := pass.TransformFunc{Label: "broken", Fn: func(in ir.Instruction) (ir.Instruction, bool) {
		if in.Kind == ir.Output {
			in.Arg = 0
		}
		return in, true
	}}
	_, err := Compile("+.", pass.New(broken))
	if !errors.Is(err, ir.ErrInvalidInstruction) {
		t.Errorf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestCompile_DroppedLoopBodySkipsPasses(t *testing.T) {
	var seen []string
	p := pass.New(
		pass.TransformFunc{Label: "no-loops", Fn: func(in ir.Instruction) (ir.Instruction, bool) {
			return in, in.Kind != ir.Loop
		}},
		pass.AnalyseFunc{Label: "spy", Fn: func(in ir.Instruction) {
			seen = append(seen, in.String())
		}},
	)
	// the spy is registered after the drop, so it never sees LOOP either
	if _, err := Compile("+[>+.<-]", p); err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	if strings.Join(seen, "|") != "CELL +1" {
		t.Errorf("passes saw %v, want [CELL +1]", seen)
	}
}

func TestCompile_LeafRewrittenToLoop(t *testing.T) {
	toLoop := pass.TransformFunc{Label: "to-loop", Fn: func(in ir.Instruction) (ir.Instruction, bool) {
		if in.Kind == ir.Input {
			return ir.NewLoop(), true
		}
		return in, true
	}}
	s, err := Compile("+,.", pass.New(toLoop))
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	if got := ir.Source(s); got != "+[]." {
		t.Errorf("Source() = %q, want %q", got, "+[].")
	}
}

func TestCompile_ScriptsGetDistinctIDs(t *testing.T) {
	a := compile(t, "+")
	b := compile(t, "+")
	if a.ID == b.ID {
		t.Error("two compilations share an ID")
	}
}
