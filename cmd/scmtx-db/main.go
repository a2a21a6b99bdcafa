// Command scmtx-db ingests and queries single-cell expression datasets.
package main

import (
	"fmt"
	"os"

	"github.com/scmtx/scmtx-db/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
