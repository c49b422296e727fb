// Package backend provides an interface for different execution backends.
// This allows switching between the interpreted and native engines.
package backend

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/funvibe/bfjit/internal/config"
	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/logging"
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/vm"
)

// Backend is the interface for execution backends
type Backend interface {
	// Prepare lowers a script into a reusable program. The caller releases it.
	Prepare(s *ir.Script) (*vm.Program, error)

	// Run prepares, executes and releases s in one call. A nil ctx runs on
	// machine.NewDefault, which is flushed before Run returns.
	Run(s *ir.Script, ctx *machine.Context) error

	// Name returns the backend name for display
	Name() string
}

// New returns the backend for a config mode name.
func New(mode string) (Backend, error) {
	switch mode {
	case config.ModeInterpreted, "":
		return NewInterpreted(), nil
	case config.ModeNative:
		return NewNative(), nil
	}
	return nil, fmt.Errorf("unknown execution mode %q", mode)
}

// engine is shared by both backends; only the handler table differs.
type engine struct {
	name   string
	native bool
	Logger *slog.Logger
}

func (e *engine) Name() string {
	return e.name
}

func (e *engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Get()
}

func (e *engine) Prepare(s *ir.Script) (*vm.Program, error) {
	if s.Released() {
		return nil, ir.ErrReleased
	}
	return vm.NewProgram(s, e.native)
}

func (e *engine) Run(s *ir.Script, ctx *machine.Context) (err error) {
	p, err := e.Prepare(s)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = machine.NewDefault()
		defer func() {
			if ferr := ctx.Flush(); err == nil {
				err = ferr
			}
		}()
	}
	defer func() {
		if rerr := p.Release(); rerr != nil {
			e.logger().Warn("releasing program", "script", s.ID, "error", rerr)
		}
	}()

	start := time.Now()
	m, err := p.Run(ctx)
	attrs := []any{
		"script", s.ID,
		"backend", e.name,
		"ops", p.Chunk.Len(),
		"status", vm.StatusName(vm.Status(err)),
		"elapsed", time.Since(start),
	}
	if m != nil {
		attrs = append(attrs, "steps", m.Steps)
	}
	e.logger().Info("run finished", attrs...)
	return err
}

// Interpreted runs every op through Go handlers.
type Interpreted struct{ engine }

func NewInterpreted() *Interpreted {
	return &Interpreted{engine{name: config.ModeInterpreted}}
}

// Native runs mutate ops as generated machine code.
type Native struct{ engine }

func NewNative() *Native {
	return &Native{engine{name: config.ModeNative, native: true}}
}
