// Command eleflat converts electron ntuples into flat tables for electron
// ID tuning.
package main

import (
	"os"

	"github.com/roach88/eleflat/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
