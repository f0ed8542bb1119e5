// Package demo implements a small todo list on top of the node tree, driven
// by commands read from stdin. Instead of painting, it prints an outline of
// the visited nodes.
package demo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xiaq/persistent/hashmap"
	"github.com/xiaq/persistent/vector"

	"src.weft.sh/pkg/change"
	"src.weft.sh/pkg/errutil"
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/gen"
	"src.weft.sh/pkg/logutil"
	"src.weft.sh/pkg/prog"
	"src.weft.sh/pkg/runtime"
	"src.weft.sh/pkg/state"
	"src.weft.sh/pkg/store"
	"src.weft.sh/pkg/store/storedefs"
	"src.weft.sh/pkg/sys"
	"src.weft.sh/pkg/vals"
)

var logger = logutil.GetLogger("[demo] ")

const (
	snapshotName = "todo"
	commandList  = "add, ins, done, rm, title, verbose, show, tab, save, history, forget, help, quit"
)

var (
	pathItems     = vals.Key("items")
	pathTitle     = vals.Key("title")
	pathVerbose   = vals.Key("verbose")
	pathDoneCount = vals.ParsePath("stats.done")
	pathTotal     = vals.ParsePath("stats.total")
)

// Program is the todo list demo.
type Program struct{}

// Run runs the demo.
func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) > 0 {
		return prog.BadUsage("arguments are not supported")
	}
	d, err := newDemo(f.Runtime)
	if err != nil {
		return err
	}
	interactive := sys.IsATTY(fds[0])
	err = d.loop(fds[0], fds[1], fds[2], interactive)
	return errutil.Multi(err, d.close())
}

type demo struct {
	state *state.MapState
	rt    *runtime.Runtime
	store storedefs.Store
}

func newDemo(cfg runtime.Config) (*demo, error) {
	q := change.NewQueue()
	st, err := state.FromMap(map[string]any{
		"title":   "weft",
		"verbose": false,
		"items":   []any{},
		"stats":   map[string]any{"done": 0, "total": 0},
	}, q)
	if err != nil {
		return nil, err
	}
	if cfg.State != "" {
		if err := st.LoadYAMLFile(cfg.State); err != nil {
			return nil, err
		}
	}
	d := &demo{state: st}
	db, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	if db != "" {
		d.store, err = store.NewStore(db)
		if err != nil {
			return nil, err
		}
		if _, err := runtime.Restore(d.store, snapshotName, st); err != nil {
			d.store.Close()
			return nil, err
		}
	}
	if err := d.updateStats(); err != nil {
		return nil, err
	}
	tree := gen.NewTree(todoTemplate(), eval.NewContext(st, nil), newFactories(), newViews())
	d.rt = runtime.New(tree, q, cfg)
	return d, nil
}

func (d *demo) close() error {
	if d.store == nil {
		return nil
	}
	_, err := runtime.Save(d.store, snapshotName, d.state)
	return errutil.Multi(err, d.store.Close())
}

var errQuit = errors.New("quit")

func (d *demo) loop(in io.Reader, out, errOut io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		err := d.exec(scanner.Text(), out)
		if err == errQuit {
			break
		}
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return d.show(out)
}

func (d *demo) exec(line string, out io.Writer) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	logger.Printf("command %q %q", cmd, arg)
	switch cmd {
	case "":
		return nil
	case "add":
		return d.mutate(d.state.Push(pathItems, newItem(arg)))
	case "ins":
		i, title, err := indexArg(arg)
		if err != nil {
			return err
		}
		return d.mutate(d.state.Insert(pathItems, i, newItem(title)))
	case "done":
		i, _, err := indexArg(arg)
		if err != nil {
			return err
		}
		if _, ok := d.state.Value(pathItems.Compose(vals.Index(i))); !ok {
			return fmt.Errorf("no item %d", i)
		}
		return d.mutate(d.state.Set(pathItems.Compose(vals.Index(i)).Compose(vals.Key("done")), true))
	case "rm":
		i, _, err := indexArg(arg)
		if err != nil {
			return err
		}
		return d.mutate(d.state.Remove(pathItems, i))
	case "title":
		return d.state.Set(pathTitle, arg)
	case "verbose":
		// One-way: once the commands line is shown, its branch stays selected.
		if arg != "" {
			return errors.New("verbose takes no arguments and cannot be turned off")
		}
		return d.state.Set(pathVerbose, true)
	case "show":
		return d.show(out)
	case "tab":
		id, ok := d.rt.Tree().Views().Next()
		if !ok {
			return errors.New("no views")
		}
		fmt.Fprintln(out, "focus:", id)
		return nil
	case "save":
		if d.store == nil {
			return errors.New("no database")
		}
		seq, err := runtime.Save(d.store, snapshotName, d.state)
		if err == nil {
			fmt.Fprintln(out, "saved", seq)
		}
		return err
	case "history":
		if d.store == nil {
			return errors.New("no database")
		}
		next, err := d.store.NextSnapshotSeq()
		if err != nil {
			return err
		}
		snaps, err := d.store.Snapshots(1, next)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			fmt.Fprintln(out, snap.Seq, snap.Name)
		}
		return nil
	case "forget":
		if d.store == nil {
			return errors.New("no database")
		}
		seq, _, err := indexArg(arg)
		if err != nil {
			return err
		}
		return d.store.DelSnapshot(seq)
	case "help":
		fmt.Fprintln(out, "commands:", commandList)
		return nil
	case "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newItem(title string) map[string]any {
	return map[string]any{"title": title, "done": false}
}

// Parses "<index> <rest>".
func indexArg(arg string) (int, string, error) {
	s, rest, _ := strings.Cut(arg, " ")
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, "", fmt.Errorf("bad index %q", s)
	}
	return i, strings.TrimSpace(rest), nil
}

// Keeps the stats in sync after the items have changed.
func (d *demo) mutate(err error) error {
	if err != nil {
		return err
	}
	return d.updateStats()
}

func (d *demo) updateStats() error {
	items, _ := d.state.Value(pathItems)
	list, _ := items.(vector.Vector)
	total, done := 0, 0
	if list != nil {
		for it := list.Iterator(); it.HasElem(); it.Next() {
			total++
			if m, ok := it.Elem().(hashmap.Map); ok {
				if v, _ := m.Index("done"); vals.Truthy(v) {
					done++
				}
			}
		}
	}
	return errutil.Multi(
		d.setIfChanged(pathTotal, total), d.setIfChanged(pathDoneCount, done))
}

func (d *demo) setIfChanged(p vals.Path, v int) error {
	if old, ok := d.state.Value(p); ok && vals.Equal(old, v) {
		return nil
	}
	return d.state.Set(p, v)
}

// Runs a pass and prints the outline of the visited nodes.
func (d *demo) show(out io.Writer) error {
	stats, err := d.rt.Pass(func(s *gen.Single, depth int) error {
		fmt.Fprintf(out, "%s%v\n", strings.Repeat("  ", depth), s.Widget)
		return nil
	})
	if stats.Partial {
		fmt.Fprintln(out, "...")
	}
	return err
}
