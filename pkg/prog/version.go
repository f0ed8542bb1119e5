package prog

import (
	"fmt"
	"os"
	"runtime"
)

// Version is the version of weft. It is overridden at build time with
// -ldflags "-X src.weft.sh/pkg/prog.Version=...".
var Version = "0.1.0-dev"

// VersionProgram shows the version when -version is given.
type VersionProgram struct{}

func (VersionProgram) Run(fds [3]*os.File, f *Flags, _ []string) error {
	if !f.Version {
		return ErrNotSuitable
	}
	fmt.Fprintln(fds[1], "Version:", Version)
	fmt.Fprintln(fds[1], "Go version:", runtime.Version())
	return nil
}
