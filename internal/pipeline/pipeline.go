// Package pipeline threads a PipelineContext through load, compile and
// execute stages.
package pipeline

// Processor is one stage of a Pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext {
	return f(ctx)
}

// Pipeline runs its stages in order over one context. It stops after the
// first stage that leaves the context failed.
type Pipeline struct {
	stages []Processor
}

func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Append adds stages after the existing ones.
func (p *Pipeline) Append(stages ...Processor) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run passes ctx through the stages. A stage may return a different context.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, stage := range p.stages {
		if ctx.Failed() {
			break
		}
		ctx = stage.Process(ctx)
	}
	return ctx
}
