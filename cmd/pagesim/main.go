// Command pagesim replays page-access traces against the policies
// of the pagereplace package.
package main

import (
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCommand(os.Stderr).Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
