// Command ecreader materializes instances of a CUE-defined class model from
// their mapped SQLite tables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ecreader/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
