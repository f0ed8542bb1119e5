// Package prog provides the entry point to weft. Programs plug into it to
// share flag parsing, configuration and logging setup.
package prog

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"src.weft.sh/pkg/logutil"
	"src.weft.sh/pkg/runtime"
)

// Flags keeps command-line flags.
type Flags struct {
	Log, Config string

	Help, Version bool

	DB, State string
	Budget    int

	// Runtime configuration, from the config file with flags applied.
	Runtime runtime.Config
}

func newFlagSet(f *Flags) *flag.FlagSet {
	fs := flag.NewFlagSet("weft", flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.Log, "log", "", "a file to write debug log to")
	fs.StringVar(&f.Config, "config", "", "path to a TOML configuration file")

	fs.BoolVar(&f.Help, "help", false, "show usage help and quit")
	fs.BoolVar(&f.Version, "version", false, "show version and quit")

	fs.StringVar(&f.DB, "db", "", "path to the state database, or \"default\" for one in ~/.weft")
	fs.StringVar(&f.State, "state", "", "path to a YAML document to seed the state with")
	fs.IntVar(&f.Budget, "budget", 0, "maximum number of nodes visited per pass, 0 for no limit")

	return fs
}

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: weft [flags]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the first applicable subprogram. It
// returns the exit status of the program.
func Run(fds [3]*os.File, args []string, p Program) int {
	f := &Flags{}
	fs := newFlagSet(f)
	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// (*flag.FlagSet).Parse returns ErrHelp when -h or -help was
			// requested but *not* defined. weft defines -help, but not -h; so
			// this means that -h has been requested. Handle this by printing
			// the same message as an undefined flag.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}

	if f.Help {
		usage(fds[1], fs)
		return 0
	}

	if f.Config != "" {
		cfg, err := runtime.LoadConfig(f.Config)
		if err != nil {
			fmt.Fprintln(fds[2], err)
			return 2
		}
		f.Runtime = cfg
	}
	if f.Budget < 0 {
		fmt.Fprintln(fds[2], "-budget must be non-negative")
		usage(fds[2], fs)
		return 2
	}
	f.Runtime = f.Runtime.Merge(runtime.Config{
		FrameBudget: f.Budget, DB: f.DB, Log: f.Log, State: f.State})

	if f.Runtime.Log != "" {
		err = logutil.SetOutputFile(f.Runtime.Log)
		if err != nil {
			fmt.Fprintln(fds[2], err)
		}
		defer logutil.SetOutput(io.Discard)
	}

	err = p.Run(fds, f, fs.Args())
	if err == nil {
		return 0
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(fds[2], msg)
	}
	var bad badUsageError
	var exit exitError
	switch {
	case errors.As(err, &bad):
		usage(fds[2], fs)
	case errors.As(err, &exit):
		return exit.exit
	}
	return 2
}

// Composite returns a Program that tries each of the given programs,
// terminating at the first one that doesn't return NotSuitable().
func Composite(programs ...Program) Program {
	return compositeProgram(programs)
}

type compositeProgram []Program

func (cp compositeProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	for _, p := range cp {
		err := p.Run(fds, f, args)
		if err != ErrNotSuitable {
			return err
		}
	}
	// If we have reached here, all subprograms have returned ErrNotSuitable
	return ErrNotSuitable
}

// ErrNotSuitable is a special error that may be returned by Program.Run, to
// signify that this Program should not be run. It is useful when a Program is
// used in Composite.
var ErrNotSuitable = errors.New("internal error: no suitable subprogram")

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It causes
// the main function to exit with the given code without printing any error
// messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }

// Program represents a subprogram.
type Program interface {
	// Run runs the subprogram.
	Run(fds [3]*os.File, f *Flags, args []string) error
}
