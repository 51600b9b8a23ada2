// Command freight loads store definitions and runs their deeds.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/freight/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
