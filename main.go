// Command reqmeta stamps the git-derived release version into package.json
// and into the Windows version resource of native addons.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vadimpiven/reqmeta/cmd"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "reqmeta: internal error: %v\n%s", r, debug.Stack())
			code = cmd.ExitPanic
		}
	}()

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reqmeta: %v\n", err)
	}
	return cmd.ExitCode(err)
}
