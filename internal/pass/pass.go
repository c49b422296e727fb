// Package pass implements the per-instruction analyse/transform pipeline
// that the compiler threads every new instruction through.
package pass

import "github.com/funvibe/bfjit/internal/ir"

// Pass is a unit of compile-time inspection or rewriting. A pass opts in to
// work by also implementing Analyser, Transformer, or both.
type Pass interface {
	Name() string
}

// Analyser inspects an instruction without changing it.
type Analyser interface {
	Analyse(in ir.Instruction)
}

// Transformer rewrites an instruction. Returning false drops it.
type Transformer interface {
	Transform(in ir.Instruction) (ir.Instruction, bool)
}

// Pipeline is an ordered sequence of passes.
type Pipeline struct {
	passes []Pass
}

func New(passes ...Pass) *Pipeline {
	p := &Pipeline{}
	for _, pass := range passes {
		p.Register(pass)
	}
	return p
}

// Register appends a pass. Registration order is application order.
func (p *Pipeline) Register(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the registered passes in order.
func (p *Pipeline) Passes() []Pass {
	if p == nil {
		return nil
	}
	return p.passes
}

// Len returns the number of registered passes.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.passes)
}

// Apply runs one freshly built instruction through every pass. Each pass
// sees the output of the previous one; the first drop ends processing.
// A nil Pipeline keeps the instruction unchanged.
func (p *Pipeline) Apply(in ir.Instruction) (ir.Instruction, bool) {
	if p == nil {
		return in, true
	}
	for _, pass := range p.passes {
		if a, ok := pass.(Analyser); ok {
			a.Analyse(in)
		}
		if t, ok := pass.(Transformer); ok {
			var keep bool
			in, keep = t.Transform(in)
			if !keep {
				return ir.Instruction{}, false
			}
		}
	}
	return in, true
}
