// Package bfjit is the embedding API: compile programs and run them against
// in-memory or caller-supplied streams.
package bfjit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/funvibe/bfjit/internal/backend"
	"github.com/funvibe/bfjit/internal/compiler"
	"github.com/funvibe/bfjit/internal/config"
	"github.com/funvibe/bfjit/internal/ir"
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/pass"
	"github.com/funvibe/bfjit/internal/source"
	"github.com/funvibe/bfjit/internal/vm"
	"github.com/funvibe/bfjit/pkg/ext"
)

// VM holds the settings shared by every program it compiles.
type VM struct {
	backend    backend.Backend
	tapeLength int
	eof        machine.EOFPolicy
	passes     []ext.Pass
}

// New creates a VM with the interpreted engine and default tape.
func New() *VM {
	return &VM{
		backend:    backend.NewInterpreted(),
		tapeLength: config.DefaultTapeLength,
	}
}

// Configure applies a project configuration.
func (v *VM) Configure(p *config.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := v.SetMode(p.Mode); err != nil {
		return err
	}
	if err := v.SetEOF(p.EOF); err != nil {
		return err
	}
	v.tapeLength = p.TapeLength
	for _, name := range p.Passes {
		ps, err := pass.Lookup(name)
		if err != nil {
			return err
		}
		v.Use(ps)
	}
	return nil
}

// SetMode selects "interpreted" or "native".
func (v *VM) SetMode(mode string) error {
	b, err := backend.New(mode)
	if err != nil {
		return err
	}
	v.backend = b
	return nil
}

// Mode returns the selected engine name.
func (v *VM) Mode() string {
	return v.backend.Name()
}

// SetTapeLength sets the number of cells for later runs.
func (v *VM) SetTapeLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", machine.ErrTapeLength, n)
	}
	v.tapeLength = n
	return nil
}

// SetEOF selects what Input stores at end of input.
func (v *VM) SetEOF(name string) error {
	policy, err := machine.ParseEOFPolicy(name)
	if err != nil {
		return err
	}
	v.eof = policy
	return nil
}

// Use appends a pass applied to programs compiled afterwards.
func (v *VM) Use(p ext.Pass) {
	v.passes = append(v.passes, p)
}

// Program is a compiled program bound to the VM's engine.
type Program struct {
	vm      *VM
	script  *ir.Script
	program *vm.Program
}

// Compile compiles code with the registered passes.
func (v *VM) Compile(code string) (*Program, error) {
	script, err := compiler.Compile(code, pass.New(v.passes...))
	if err != nil {
		return nil, err
	}
	prepared, err := v.backend.Prepare(script)
	if err != nil {
		return nil, err
	}
	return &Program{vm: v, script: script, program: prepared}, nil
}

// LoadFile compiles the program in path.
func (v *VM) LoadFile(path string) (*Program, error) {
	code, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return v.Compile(code)
}

// Eval compiles and runs code once, returning everything it wrote.
func (v *VM) Eval(code string, input []byte) ([]byte, error) {
	p, err := v.Compile(code)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	var out bytes.Buffer
	err = p.Run(context.Background(), bytes.NewReader(input), &out)
	return out.Bytes(), err
}

// Source returns the canonical text of the compiled program.
func (p *Program) Source() string {
	return ir.Source(p.script)
}

// Run executes the program on a fresh tape. ctx aborts the run at its next
// read or write once done.
func (p *Program) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	env := machine.NewStreamEnv(in, out, false)
	m, err := machine.New(p.vm.tapeLength, machine.WithContext(ctx, env))
	if err != nil {
		return err
	}
	m.EOF = p.vm.eof

	_, err = p.program.Run(m)
	if ferr := m.Release(); err == nil {
		err = ferr
	}
	return err
}

// Release frees the program, including any native code.
func (p *Program) Release() error {
	err := p.program.Release()
	p.script.Release()
	return err
}

// Status maps an error returned by this package to its status code.
func Status(err error) int {
	return vm.Status(err)
}
