package cli

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/funvibe/bfjit/internal/config"
)

// options holds the parsed command line and the project it resolves to.
type options struct {
	project    *config.Project
	configPath string
	timeout    time.Duration
	dump       bool
	eval       string
	output     string
	host       string
	positional []string
}

// boolFlags never take a separate value argument.
var boolFlags = map[string]bool{"dump": true}

// reorderArgs moves flags in front of positional arguments so that
// "prog.bf -mode native" parses like "-mode native prog.bf".
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") || boolFlags[name] {
			continue
		}
		// the value may itself start with '-', as in -e '-.'
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

// parseOptions parses flags and resolves the project configuration.
// Precedence: flags, then the project file, then built-in defaults with
// BackendType as the mode.
func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("bfjit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	var (
		mode, eof, logLevel, passes string
		tape                        int
	)
	fs.StringVar(&mode, "mode", "", "execution mode: interpreted or native")
	fs.IntVar(&tape, "tape", 0, "number of tape cells")
	fs.StringVar(&eof, "eof", "", "value stored on end of input: zero, minus-one or unchanged")
	fs.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&passes, "passes", "", "comma separated compile passes")
	fs.StringVar(&opts.configPath, "config", "", "path to "+config.ProjectFileName)
	fs.DurationVar(&opts.timeout, "timeout", 0, "abort at the next input or output after this long")
	fs.BoolVar(&opts.dump, "dump", false, "print the compiled ops instead of running")
	fs.StringVar(&opts.eval, "e", "", "run the given program text")
	fs.StringVar(&opts.output, "o", "", "output path for build")
	fs.StringVar(&opts.host, "host", "", "host binary for build (defaults to this executable)")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return nil, err
	}
	opts.positional = fs.Args()

	if opts.timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %s", opts.timeout)
	}

	project, err := loadProject(opts)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			project.Mode = mode
		case "tape":
			project.TapeLength = tape
		case "eof":
			project.EOF = eof
		case "log-level":
			project.LogLevel = logLevel
		case "passes":
			project.Passes = nil
			for _, name := range strings.Split(passes, ",") {
				if name = strings.TrimSpace(name); name != "" {
					project.Passes = append(project.Passes, name)
				}
			}
		}
	})
	if err := project.Validate(); err != nil {
		return nil, err
	}
	opts.project = project
	return opts, nil
}

func loadProject(opts *options) (*config.Project, error) {
	path := opts.configPath
	if path == "" {
		dir := "."
		if len(opts.positional) > 0 {
			dir = filepath.Dir(opts.positional[0])
		}
		found, err := config.FindProject(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		project := config.DefaultProject()
		project.Mode = BackendType
		return project, nil
	}
	return config.LoadProjectWithMode(path, BackendType)
}
