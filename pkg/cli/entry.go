// Package cli implements the bfjit command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/bfjit/internal/backend"
	"github.com/funvibe/bfjit/internal/compiler"
	"github.com/funvibe/bfjit/internal/config"
	"github.com/funvibe/bfjit/internal/logging"
	"github.com/funvibe/bfjit/internal/machine"
	"github.com/funvibe/bfjit/internal/pass"
	"github.com/funvibe/bfjit/internal/pipeline"
	"github.com/funvibe/bfjit/internal/source"
	"github.com/funvibe/bfjit/internal/vm"
)

// BackendType is the execution mode used when neither a project file nor
// -mode picks one.
var BackendType = config.ModeInterpreted

// Exit codes outside the status range.
const (
	exitUsage    = 2
	exitInternal = 3
)

// runner carries the process streams so commands can be driven from tests.
type runner struct {
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// env is the program's byte environment
	env machine.Environment

	// executable returns the path of the running binary
	executable func() (string, error)
}

// Run executes the command line in os.Args and exits.
func Run() {
	r := &runner{
		args:       os.Args,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		env:        machine.Stdio(),
		executable: executablePath,
	}
	os.Exit(r.run())
}

func executablePath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(path)
}

func (r *runner) run() (code int) {
	// Catch panics and show user-friendly error
	defer func() {
		if rec := recover(); rec != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(rec)
			}
			fmt.Fprintf(r.stderr, "Internal error: %v\n", rec)
			fmt.Fprintln(r.stderr, "This is a bug. Please report it.")
			code = exitInternal
		}
	}()

	// Check for embedded bytecode first; self-contained binaries run it
	if handled, code := r.runEmbeddedBundle(); handled {
		return code
	}

	args := r.args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "-h", "-help", "--help", "help":
			r.printHelp()
			return 0
		case "-v", "-version", "--version":
			fmt.Fprintln(r.stdout, "bfjit "+config.Version)
			return 0
		case "-c", "--compile":
			return r.withOptions(args[1:], r.handleCompile)
		case "-r", "--run":
			return r.withOptions(args[1:], r.handleRunCompiled)
		case "build":
			return r.withOptions(args[1:], r.handleBuild)
		}
	}
	return r.withOptions(args, r.handleRun)
}

func (r *runner) withOptions(args []string, handle func(*options) int) int {
	opts, err := parseOptions(args, r.stderr)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return exitUsage
	}
	if err := logging.InitWriter(r.stderr, opts.project.LogLevel); err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return exitUsage
	}
	return handle(opts)
}

// exitCode turns a status code into a process exit code.
func exitCode(err error) int {
	return -vm.Status(err)
}

func (r *runner) fail(ctx *pipeline.PipelineContext) int {
	for _, err := range ctx.Errors {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
	}
	return exitCode(ctx.Err())
}

// handleRun compiles and runs a source file, -e text or stdin.
func (r *runner) handleRun(opts *options) int {
	ctx := pipeline.NewPipelineContext("")
	switch {
	case opts.eval != "":
		ctx.SourceCode = opts.eval
	case len(opts.positional) > 0:
		if strings.HasSuffix(opts.positional[0], config.BundleFileExt) {
			return r.handleRunCompiled(opts)
		}
		path, err := filepath.Abs(opts.positional[0])
		if err != nil {
			fmt.Fprintf(r.stderr, "Error: %s\n", err)
			return exitUsage
		}
		if !config.IsSourceFile(path) {
			logging.Get().Warn("unrecognized source extension", "path", path)
		}
		ctx.FilePath = path
	default:
		if f, ok := r.stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				fmt.Fprintf(r.stderr, "Usage: %s <file> or pipe from stdin\n", filepath.Base(r.args[0]))
				return exitUsage
			}
		}
		text, err := source.Read(r.stdin)
		if err != nil {
			fmt.Fprintf(r.stderr, "Error: %s\n", err)
			return exitCode(err)
		}
		ctx.SourceCode = text
	}
	return r.execute(ctx, opts)
}

// handleCompile compiles a source file to a bundle (.bfc file).
func (r *runner) handleCompile(opts *options) int {
	if len(opts.positional) == 0 {
		fmt.Fprintln(r.stderr, "Usage: bfjit -c <file.bf>")
		return exitUsage
	}
	sourcePath := opts.positional[0]

	bundle, code := r.compileToBundle(sourcePath, opts)
	if bundle == nil {
		return code
	}
	data, err := bundle.Serialize()
	if err != nil {
		fmt.Fprintf(r.stderr, "Serialization error: %s\n", err)
		return exitCode(err)
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = config.TrimSourceExt(sourcePath) + config.BundleFileExt
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(r.stderr, "Error writing bundle file: %s\n", err)
		return exitCode(err)
	}

	fmt.Fprintf(r.stdout, "Compiled %s -> %s (%d bytes)\n", sourcePath, outputPath, len(data))
	return 0
}

// compileToBundle runs the load and compile stages on sourcePath.
func (r *runner) compileToBundle(sourcePath string, opts *options) (*vm.Bundle, int) {
	passes, err := pass.FromNames(opts.project.Passes)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return nil, exitUsage
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return nil, exitUsage
	}

	ctx := pipeline.NewPipelineContext("")
	ctx.FilePath = abs
	ctx.Passes = passes
	ctx = pipeline.New(
		source.LoadProcessor{},
		&compiler.CompileProcessor{},
		reportPasses(),
	).Run(ctx)
	if ctx.Failed() {
		return nil, r.fail(ctx)
	}
	return &vm.Bundle{Script: ctx.Script, SourceFile: abs}, 0
}

// handleRunCompiled runs a pre-compiled .bfc bundle.
func (r *runner) handleRunCompiled(opts *options) int {
	if len(opts.positional) == 0 {
		fmt.Fprintln(r.stderr, "Usage: bfjit -r <file.bfc>")
		return exitUsage
	}
	data, err := os.ReadFile(opts.positional[0])
	if err != nil {
		fmt.Fprintf(r.stderr, "Error reading bundle file: %s\n", err)
		return exitCode(err)
	}
	bundle, err := vm.Deserialize(data)
	if err != nil {
		fmt.Fprintf(r.stderr, "Deserialization error: %s\n", err)
		return exitCode(err)
	}
	return r.runBundle(bundle, opts)
}

func (r *runner) runBundle(bundle *vm.Bundle, opts *options) int {
	ctx := pipeline.NewPipelineContext("")
	ctx.FilePath = bundle.SourceFile
	ctx.Script = bundle.Script
	return r.execute(ctx, opts)
}

// handleBuild packs a compiled source file into a self-contained binary.
func (r *runner) handleBuild(opts *options) int {
	if len(opts.positional) == 0 {
		fmt.Fprintln(r.stderr, "Usage: bfjit build <file.bf> [-o output] [-host binary]")
		return exitUsage
	}
	sourcePath := opts.positional[0]

	bundle, code := r.compileToBundle(sourcePath, opts)
	if bundle == nil {
		return code
	}

	hostPath := opts.host
	if hostPath == "" {
		self, err := r.executable()
		if err != nil {
			fmt.Fprintf(r.stderr, "Cannot find own executable: %s\n", err)
			return exitUsage
		}
		hostPath = self
	}
	hostBinary, err := os.ReadFile(hostPath)
	if err != nil {
		fmt.Fprintf(r.stderr, "Cannot read host binary %s: %s\n", hostPath, err)
		return exitUsage
	}

	outputData, err := vm.PackSelfContained(hostBinary, bundle)
	if err != nil {
		fmt.Fprintf(r.stderr, "Packing error: %s\n", err)
		return exitCode(err)
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = config.TrimSourceExt(sourcePath)
	}
	if err := os.WriteFile(outputPath, outputData, 0755); err != nil {
		fmt.Fprintf(r.stderr, "Error writing output binary: %s\n", err)
		return exitCode(err)
	}

	fmt.Fprintf(r.stdout, "Built: %s (%.1f MB)\n", outputPath, float64(len(outputData))/(1024*1024))
	return 0
}

// runEmbeddedBundle runs the bundle appended to this binary, if any.
// A first argument of "$" skips it so a packed binary still works as bfjit.
func (r *runner) runEmbeddedBundle() (bool, int) {
	if len(r.args) >= 2 && r.args[1] == "$" {
		r.args = append([]string{r.args[0]}, r.args[2:]...)
		return false, 0
	}
	if r.executable == nil {
		return false, 0
	}
	exePath, err := r.executable()
	if err != nil {
		return false, 0
	}
	data, err := os.ReadFile(exePath)
	if err != nil {
		return false, 0
	}

	bundle, err := vm.ExtractEmbeddedBundle(data)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error loading embedded bundle: %s\n", err)
		return true, exitCode(err)
	}
	if bundle == nil {
		return false, 0
	}
	return true, r.withOptions(r.args[1:], func(opts *options) int {
		return r.runBundle(bundle, opts)
	})
}

// execute runs the remaining stages for ctx and reports the outcome.
func (r *runner) execute(ctx *pipeline.PipelineContext, opts *options) int {
	project := opts.project

	b, err := backend.New(project.Mode)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return exitUsage
	}
	if ctx.Script == nil {
		passes, err := pass.FromNames(project.Passes)
		if err != nil {
			fmt.Fprintf(r.stderr, "Error: %s\n", err)
			return exitUsage
		}
		ctx.Passes = passes
	}

	m, err := machine.New(project.TapeLength, r.env)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return exitUsage
	}
	if m.EOF, err = machine.ParseEOFPolicy(project.EOF); err != nil {
		fmt.Fprintf(r.stderr, "Error: %s\n", err)
		return exitUsage
	}
	if opts.timeout > 0 {
		c, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		m.Env = machine.WithContext(c, r.env)
	}
	ctx.Machine = m

	stages := pipeline.New(
		source.LoadProcessor{},
		&compiler.CompileProcessor{},
		reportPasses(),
	)
	if opts.dump {
		stages.Append(r.dumpProcessor())
	} else {
		stages.Append(backend.NewExecutionProcessor(b))
	}
	ctx = stages.Run(ctx)

	if ctx.Failed() {
		return r.fail(ctx)
	}
	return 0
}

// reportPasses logs passes that summarise what they saw, such as stats.
func reportPasses() pipeline.Processor {
	return pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
		if ctx.Failed() || ctx.Script == nil {
			return ctx
		}
		for _, p := range ctx.Passes.Passes() {
			if v, ok := p.(slog.LogValuer); ok {
				logging.Get().Info("pass summary", "script", ctx.Script.ID, p.Name(), v)
			}
		}
		return ctx
	})
}

func (r *runner) dumpProcessor() pipeline.Processor {
	return pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
		if ctx.Failed() || ctx.Script == nil {
			return ctx
		}
		chunk, err := vm.Lower(ctx.Script)
		if err != nil {
			ctx.AddError(err)
			return ctx
		}
		name := ctx.FilePath
		if name == "" {
			name = "<eval>"
		}
		fmt.Fprint(r.stdout, vm.Disassemble(chunk, name))
		return ctx
	})
}

func (r *runner) printHelp() {
	fmt.Fprintf(r.stdout, `bfjit %s

Usage:
  bfjit [flags] <file.bf>          compile and run a program
  bfjit [flags] -e '<program>'     run program text
  bfjit [flags] < file.bf          read the program from stdin
  bfjit -c <file.bf> [-o out.bfc]  compile to a bundle
  bfjit -r <file.bfc>              run a bundle
  bfjit build <file.bf> [-o out]   build a self-contained executable

Flags:
  -mode interpreted|native   execution engine (default from %s or %q)
  -tape N                    number of cells (default %d)
  -eof zero|minus-one|unchanged
  -passes a,b                compile passes (%v)
  -config path               project file
  -log-level level           debug, info, warn or error
  -timeout duration          abort at the next input or output after this long
  -dump                      print compiled ops instead of running
`, config.Version, config.ProjectFileName, BackendType, config.DefaultTapeLength, pass.Names())
}
