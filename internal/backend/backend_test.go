package backend

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/funvibe/bfjit/internal/compiler"
	"github.com/funvibe/bfjit/internal/config"
	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/jit"
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/pipeline"
)

func compile(t *testing.T, source string) *ir.Script {
	t.Helper()
	s, err := compiler.Compile(source, nil)
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	return s
}

func backends() []Backend {
	if jit.Supported {
		return []Backend{NewInterpreted(), NewNative()}
	}
	return []Backend{NewInterpreted()}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"", config.ModeInterpreted},
		{config.ModeInterpreted, config.ModeInterpreted},
		{config.ModeNative, config.ModeNative},
	}
	for _, tt := range tests {
		b, err := New(tt.mode)
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.mode, err)
		}
		if b.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.mode, b.Name(), tt.want)
		}
	}
	if _, err := New("tree"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRun_MultiplyLoop(t *testing.T) {
	for _, b := range backends() {
		env := machine.NewBufferEnv(nil)
		ctx, _ := machine.New(8, env)
		if err := b.Run(compile(t, "+++++[>+++++++++++++<-]>."), ctx); err != nil {
			t.Fatalf("%s: run error: %v", b.Name(), err)
		}
		if env.Out.String() != "A" {
			t.Errorf("%s: output wrong. got=%q, want=%q", b.Name(), env.Out.String(), "A")
		}
	}
}

func TestRun_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	b := NewInterpreted()
	b.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	s := compile(t, "+<")
	ctx, _ := machine.New(4, machine.NewBufferEnv(nil))
	if err := b.Run(s, ctx); !errors.Is(err, machine.ErrCursorRange) {
		t.Fatalf("expected ErrCursorRange, got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"run finished", "script=" + s.ID.String(), "status=cursor", "backend=interpreted"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestRun_NilContextUsesDefault(t *testing.T) {
	for _, b := range backends() {
		if err := b.Run(compile(t, "+>+<-"), nil); err != nil {
			t.Errorf("%s: Run with nil context error: %v", b.Name(), err)
		}
	}
}

func TestPrepare_Released(t *testing.T) {
	s := compile(t, "+")
	s.Release()
	for _, b := range backends() {
		if _, err := b.Prepare(s); !errors.Is(err, ir.ErrReleased) {
			t.Errorf("%s: expected ErrReleased, got %v", b.Name(), err)
		}
	}
}

func TestNative_Unsupported(t *testing.T) {
	if jit.Supported {
		t.Skip("native mode is supported here")
	}
	ctx, _ := machine.New(1, machine.NewBufferEnv(nil))
	if err := NewNative().Run(compile(t, "+"), ctx); !errors.Is(err, jit.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestExecutionProcessor(t *testing.T) {
	env := machine.NewBufferEnv([]byte("h"))
	m, _ := machine.New(4, env)

	ctx := pipeline.NewPipelineContext(",+.")
	ctx.Machine = m
	ctx = pipeline.New(
		&compiler.CompileProcessor{},
		NewExecutionProcessor(NewInterpreted()),
	).Run(ctx)

	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if env.Out.String() != "i" {
		t.Errorf("output wrong. got=%q, want=%q", env.Out.String(), "i")
	}
}

func TestExecutionProcessor_SkipsAfterFailure(t *testing.T) {
	env := machine.NewBufferEnv(nil)
	m, _ := machine.New(4, env)

	ctx := pipeline.NewPipelineContext("+.]")
	ctx.Machine = m
	ctx = pipeline.New(
		&compiler.CompileProcessor{},
		NewExecutionProcessor(NewInterpreted()),
	).Run(ctx)

	if !errors.Is(ctx.Err(), compiler.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", ctx.Errors)
	}
	// the processor checks on its own too, outside a Pipeline
	ctx = NewExecutionProcessor(NewInterpreted()).Process(ctx)
	if len(ctx.Errors) != 1 {
		t.Errorf("errors after direct Process: %v", ctx.Errors)
	}
	if env.Writes != 0 {
		t.Error("program ran despite a compile error")
	}
}
