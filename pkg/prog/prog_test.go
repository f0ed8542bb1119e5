package prog_test

import (
	"os"
	"path/filepath"
	"testing"

	"src.weft.sh/pkg/must"
	. "src.weft.sh/pkg/prog"
	"src.weft.sh/pkg/prog/progtest"
)

var (
	Test     = progtest.Test
	ThatWeft = progtest.ThatWeft
)

func TestCommonFlagHandling(t *testing.T) {
	Test(t, testProgram{},
		ThatWeft("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		ThatWeft("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		ThatWeft("-help").
			WritesStdoutContaining("Usage: weft [flags]"),

		ThatWeft("-budget", "-1").
			ExitsWith(2).
			WritesStderrContaining("-budget must be non-negative"),
	)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	must.WriteFile(good, "frame-budget = 5\ndb = \"from-config\"\n")
	bad := filepath.Join(dir, "bad.toml")
	must.WriteFile(bad, "frame-budgte = 5\n")

	var f *Flags
	p := flagsProgram{&f}
	Test(t, p,
		ThatWeft("-config", bad).
			ExitsWith(2).
			WritesStderrContaining("unknown keys: frame-budgte"),
		ThatWeft("-config", good, "-db", "from-flag"),
	)
	if f.Runtime.FrameBudget != 5 {
		t.Errorf("got frame budget %d, want 5", f.Runtime.FrameBudget)
	}
	if f.Runtime.DB != "from-flag" {
		t.Errorf("got db %q, want flag to override config", f.Runtime.DB)
	}
}

func TestLogFlag(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "log")
	Test(t, testProgram{}, ThatWeft("-log", logFile).DoesNothing())
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestVersion(t *testing.T) {
	Test(t, Composite(VersionProgram{}, testProgram{writeOut: "fallback"}),
		ThatWeft("-version").WritesStdoutContaining("Version: "+Version),
		ThatWeft().WritesStdout("fallback"),
	)
}

func TestNoSuitableSubprogram(t *testing.T) {
	Test(t, testProgram{notSuitable: true},
		ThatWeft().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{writeOut: "program 2"}),
		ThatWeft().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{notSuitable: true}),
		ThatWeft().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite_PreferEarlierSubprogram(t *testing.T) {
	Test(t,
		Composite(
			testProgram{writeOut: "program 1"}, testProgram{writeOut: "program 2"}),
		ThatWeft().WritesStdout("program 1"),
	)
}

func TestBadUsageError(t *testing.T) {
	Test(t,
		testProgram{returnErr: BadUsage("lorem ipsum")},
		ThatWeft().ExitsWith(2).WritesStderrContaining("lorem ipsum\n"),
	)
}

func TestExitError(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(3)},
		ThatWeft().ExitsWith(3),
	)
}

func TestExitError_0(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(0)},
		ThatWeft().ExitsWith(0),
	)
}

type testProgram struct {
	notSuitable bool
	writeOut    string
	returnErr   error
}

func (p testProgram) Run(fds [3]*os.File, _ *Flags, args []string) error {
	if p.notSuitable {
		return ErrNotSuitable
	}
	fds[1].WriteString(p.writeOut)
	return p.returnErr
}

type flagsProgram struct{ f **Flags }

func (p flagsProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	*p.f = f
	return nil
}
