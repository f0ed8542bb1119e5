// Package progtest contains utilities for testing [prog.Program] instances.
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"src.weft.sh/pkg/must"
	"src.weft.sh/pkg/prog"
)

// Case is a test case for Test.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exitStatus int
	out, err   output
}

type output struct {
	content  string
	partial  bool
	anything bool
}

// ThatWeft returns a new Case with the specified CLI arguments.
//
// The new Case expects the program run to exit with 0, and write nothing to
// stdout or stderr.
//
// When combined with subsequent method calls, a test would look like:
//
//	ThatWeft("-help").WritesStdoutContaining("Usage:")
func ThatWeft(args ...string) Case {
	return Case{args: append([]string{"weft"}, args...)}
}

// WithStdin returns an altered Case that provides the given input to stdin of
// the program.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// DoesNothing returns c itself. It is useful to mark tests that otherwise
// don't have any expectations, for example:
//
//	ThatWeft("-version").DoesNothing()
func (c Case) DoesNothing() Case {
	return c
}

// ExitsWith returns an altered Case that requires the program run to return
// with the given exit status.
func (c Case) ExitsWith(code int) Case {
	c.want.exitStatus = code
	return c
}

// WritesStdout returns an altered Case that requires the program run to write
// exactly the given text to stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.out = output{content: s}
	return c
}

// WritesStdoutContaining returns an altered Case that requires the program run
// to write output to stdout that contains the given text as a substring.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.out = output{content: s, partial: true}
	return c
}

// WritesStdoutAnything returns an altered Case that accepts any output to
// stdout.
func (c Case) WritesStdoutAnything() Case {
	c.want.out = output{anything: true}
	return c
}

// WritesStderr returns an altered Case that requires the program run to write
// exactly the given text to stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.err = output{content: s}
	return c
}

// WritesStderrContaining returns an altered Case that requires the program run
// to write output to stderr that contains the given text as a substring.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.err = output{content: s, partial: true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			r := run(p, c.args, c.stdin)
			if r.exitStatus != c.want.exitStatus {
				t.Errorf("got exit status %v, want %v", r.exitStatus, c.want.exitStatus)
			}
			if !r.out.matches(c.want.out) {
				t.Errorf("got stdout %v, want %v", r.out, c.want.out)
			}
			if !r.err.matches(c.want.err) {
				t.Errorf("got stderr %v, want %v", r.err, c.want.err)
			}
		})
	}
}

// Run runs a Program with the given arguments and stdin. It returns the exit
// status and the output written to stdout and stderr.
func Run(p prog.Program, args []string, stdin string) (exit int, stdout, stderr string) {
	r := run(p, args, stdin)
	return r.exitStatus, r.out.content, r.err.content
}

func run(p prog.Program, args []string, stdin string) result {
	r0, w0 := must.Pipe()
	r1, w1 := must.Pipe()
	r2, w2 := must.Pipe()
	go func() {
		w0.WriteString(stdin)
		w0.Close()
	}()
	// Read stdout and stderr concurrently to avoid filling up the pipes.
	outCh := make(chan string, 1)
	errCh := make(chan string, 1)
	go func() { outCh <- readAllAndClose(r1) }()
	go func() { errCh <- readAllAndClose(r2) }()

	exit := prog.Run([3]*os.File{r0, w1, w2}, args, p)
	w1.Close()
	w2.Close()
	r0.Close()
	return result{exit, output{content: <-outCh}, output{content: <-errCh}}
}

func readAllAndClose(r io.ReadCloser) string {
	return string(must.ReadAllAndClose(r))
}

func (out output) String() string {
	if out.anything {
		return "anything"
	} else if out.content == "" {
		return "empty"
	}
	if out.partial {
		return "text containing " + strings.TrimSpace(out.content)
	}
	return "text " + out.content
}

func (out output) matches(want output) bool {
	if want.anything {
		return true
	}
	if want.partial {
		return strings.Contains(out.content, want.content)
	}
	return out.content == want.content
}
