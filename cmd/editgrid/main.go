// Command editgrid validates, compiles and describes editable grid table
// specs and runs grid scenarios against them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/editgrid/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
