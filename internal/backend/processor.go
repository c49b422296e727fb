package backend

import (
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/pipeline"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Script == nil || ctx.Failed() {
		return ctx
	}
	if ctx.Machine == nil {
		ctx.Machine = machine.NewDefault()
	}

	ctx.AddError(p.Backend.Run(ctx.Script, ctx.Machine))
	// output must reach the environment even after a failed run
	ctx.AddError(ctx.Machine.Flush())
	return ctx
}
