package pipeline

import (
	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/pass"
)

// PipelineContext carries one program from source text to execution.
type PipelineContext struct {
	// SourceCode is the program text. A load stage fills it from FilePath
	// when empty.
	SourceCode string
	FilePath   string

	// Passes is applied by the compile stage. May be nil.
	Passes *pass.Pipeline

	// Script is set by the compile stage, or up front when running a bundle.
	Script *ir.Script

	// Machine is the execution context used by the execute stage.
	Machine *machine.Context

	Errors []error
}

func NewPipelineContext(sourceCode string) *PipelineContext {
	return &PipelineContext{SourceCode: sourceCode}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// Err returns the first recorded error.
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

// AddError records err if it is non-nil.
func (c *PipelineContext) AddError(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}
