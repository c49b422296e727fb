package pass

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/logging"
)

// AnalyseFunc adapts a function to an analysing Pass.
type AnalyseFunc struct {
	Label string
	Fn    func(ir.Instruction)
}

func (f AnalyseFunc) Name() string { return f.Label }
func (f AnalyseFunc) Analyse(in ir.Instruction) { f.Fn(in) }

// TransformFunc adapts a function to a transforming Pass.
type TransformFunc struct {
	Label string
	Fn    func(ir.Instruction) (ir.Instruction, bool)
}

func (f TransformFunc) Name() string { return f.Label }
func (f TransformFunc) Transform(in ir.Instruction) (ir.Instruction, bool) {
	return f.Fn(in)
}

// Stats counts the instructions it sees per kind.
type Stats struct {
	Counts map[ir.Kind]int
	Total  int
}

func NewStats() *Stats {
	return &Stats{Counts: make(map[ir.Kind]int)}
}

func (s *Stats) Name() string { return "stats" }

func (s *Stats) Analyse(in ir.Instruction) {
	s.Counts[in.Kind]++
	s.Total++
}

// LogValue implements slog.LogValuer.
func (s *Stats) LogValue() slog.Value {
	kinds := make([]ir.Kind, 0, len(s.Counts))
	for k := range s.Counts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	attrs := []slog.Attr{slog.Int("total", s.Total)}
	for _, k := range kinds {
		attrs = append(attrs, slog.Int(k.String(), s.Counts[k]))
	}
	return slog.GroupValue(attrs...)
}

// Trace logs every instruction at debug level.
type Trace struct {
	Logger *slog.Logger
}

func (t *Trace) Name() string { return "trace" }

func (t *Trace) Analyse(in ir.Instruction) {
	logger := t.Logger
	if logger == nil {
		logger = logging.Get()
	}
	logger.Debug("instruction", "kind", in.Kind.String(), "arg", in.Arg)
}

// StripInput drops every Input instruction, leaving cells untouched where a
// program would have read.
type StripInput struct{}

func (StripInput) Name() string { return "strip-input" }

func (StripInput) Transform(in ir.Instruction) (ir.Instruction, bool) {
	return in, in.Kind != ir.Input
}

var registry = map[string]func() Pass{
	"stats":       func() Pass { return NewStats() },
	"trace":       func() Pass { return &Trace{} },
	"strip-input": func() Pass { return StripInput{} },
}

// Names lists the passes known to Lookup.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns a fresh instance of a named built-in pass.
func Lookup(name string) (Pass, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown pass %q (known: %v)", name, Names())
	}
	return ctor(), nil
}

// FromNames builds a pipeline from registry names, in order.
func FromNames(names []string) (*Pipeline, error) {
	p := New()
	for _, name := range names {
		pass, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		p.Register(pass)
	}
	return p, nil
}
