// Command weft runs the todo list demo of the weft node tree.
package main

import (
	"os"

	"src.weft.sh/pkg/demo"
	"src.weft.sh/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(prog.VersionProgram{}, demo.Program{})))
}
