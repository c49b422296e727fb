package compiler

import "github.com/funvibe/bfjit/internal/pipeline"

// CompileProcessor implements pipeline.Processor. It leaves a Script that
// is already present untouched, which is how bundles skip compilation.
type CompileProcessor struct {
	Options Options
}

func (p *CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.Script != nil {
		return ctx
	}
	script, err := New(ctx.Passes, p.Options).Compile(ctx.SourceCode)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Script = script
	return ctx
}
