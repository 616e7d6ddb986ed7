// Command fixedfield stores decimal model fields as scaled integers.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fixedfield/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
