// Command agentsdb ingests assistant session logs into a
// searchable SQLite store.
package main

import (
	"os"
	_ "time/tzdata"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
