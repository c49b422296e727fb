// Package compiler turns program text into an ir.Script.
package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/logging"
	"github.com/funvibe/bfjit/internal/pass"
)

// Options tunes a Compiler.
type Options struct {
	// MaxInstructions caps the size of the instruction arena. Zero means
	// no limit. Exceeding it fails with ErrOutOfMemory.
	MaxInstructions int

	// Logger receives a summary line per compilation. Defaults to
	// logging.Get().
	Logger *slog.Logger
}

// Compiler compiles source text, threading every new instruction through
// its pass pipeline.
type Compiler struct {
	passes *pass.Pipeline
	opts   Options
}

// New creates a compiler. passes may be nil.
func New(passes *pass.Pipeline, opts Options) *Compiler {
	return &Compiler{passes: passes, opts: opts}
}

// Compile compiles source with the given pipeline and default options.
func Compile(source string, passes *pass.Pipeline) (*ir.Script, error) {
	return New(passes, Options{}).Compile(source)
}

// operator classes: runs within a class merge into one instruction
const (
	classNone = iota
	classCell
	classIndex
	classOutput
	classInput
)

func classOf(ch byte) (class int, step int) {
	switch ch {
	case '+':
		return classCell, 1
	case '-':
		return classCell, -1
	case '>':
		return classIndex, 1
	case '<':
		return classIndex, -1
	case '.':
		return classOutput, 1
	case ',':
		return classInput, 1
	}
	return classNone, 0
}

// Compile scans source once left to right. No Script is returned on error.
func (c *Compiler) Compile(source string) (*ir.Script, error) {
	b := ir.NewBuilder(c.opts.MaxInstructions)

	for pos := 0; pos < len(source); {
		ch := source[pos]

		switch ch {
		case '[':
			if b.Detached() {
				// inside a discarded body; only balance matters
				if err := b.OpenLoop(ir.NewLoop(), false, pos); err != nil {
					return nil, c.buildError(err)
				}
				pos++
				continue
			}
			in, keep := c.passes.Apply(ir.NewLoop())
			if keep {
				if err := in.Validate(); err != nil {
					return nil, c.passError(source, pos, err)
				}
			}
			if err := b.OpenLoop(in, keep, pos); err != nil {
				return nil, c.buildError(err)
			}
			pos++
			continue

		case ']':
			if err := b.CloseLoop(); err != nil {
				return nil, newSyntaxError(source, pos, "unmatched ']'")
			}
			pos++
			continue
		}

		class, _ := classOf(ch)
		if class == classNone {
			pos++
			continue
		}

		start := pos
		total := 0
		for pos < len(source) {
			cls, step := classOf(source[pos])
			if cls != class {
				break
			}
			total += step
			pos++
		}

		if total == 0 {
			continue
		}

		var in ir.Instruction
		switch class {
		case classCell:
			in = ir.NewCellMutate(total)
		case classIndex:
			in = ir.NewIndexMutate(total)
		case classOutput:
			in = ir.NewOutput(total)
		case classInput:
			in = ir.NewInput(total)
		}

		if err := c.emit(b, in, source, start); err != nil {
			return nil, err
		}
	}

	if b.Depth() > 0 {
		return nil, newSyntaxError(source, b.OpenOffset(), "unterminated '['")
	}

	script, err := b.Build()
	if err != nil {
		return nil, c.buildError(err)
	}

	c.logger().Debug("compiled script",
		"script", script.ID.String(),
		"instructions", script.Len(),
		"passes", c.passes.Len(),
	)
	return script, nil
}

// emit runs a leaf through the passes and links whatever survives. Leaves of
// a discarded loop body never reach the passes.
func (c *Compiler) emit(b *ir.Builder, in ir.Instruction, source string, pos int) error {
	if b.Detached() {
		return nil
	}
	in, keep := c.passes.Apply(in)
	if !keep {
		return nil
	}
	if err := in.Validate(); err != nil {
		return c.passError(source, pos, err)
	}

	if in.Kind == ir.Loop {
		// a pass turned a leaf into a loop; it has no body to compile
		if err := b.OpenLoop(in, true, pos); err != nil {
			return c.buildError(err)
		}
		return b.CloseLoop()
	}

	if err := b.Append(in); err != nil {
		return c.buildError(err)
	}
	return nil
}

func (c *Compiler) passError(source string, pos int, err error) error {
	line, col := position(source, pos)
	return fmt.Errorf("pass output at %d:%d: %w", line, col, err)
}

func (c *Compiler) buildError(err error) error {
	if errors.Is(err, ir.ErrArenaFull) {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	return err
}

func (c *Compiler) logger() *slog.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return logging.Get()
}
