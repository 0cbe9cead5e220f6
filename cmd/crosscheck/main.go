// Command crosscheck runs SARIMA differential tests.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/crosscheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "crosscheck: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
