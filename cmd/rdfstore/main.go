// Command rdfstore loads, queries and dumps RDF datasets kept in SQLite.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/rdfstore/internal/cli"
)

var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
)

func main() {
	root := cli.NewRootCommand()
	root.Version = fmt.Sprintf("%s (%s)", version, commit)

	if err := root.Execute(); err != nil {
		// Commands report their own ExitErrors; anything else (usage and
		// flag errors) is printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
