// Command tachyon manages a project-local installation of the tachyon CSS
// build tool and runs it with configured profiles.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tachyon-css/tachyon-go/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Build-time injection point

func main() {
	os.Exit(run())
}

// run executes the CLI and maps the outcome to a process exit status. A
// tool-reported exit code passes through untouched; program errors exit 1.
func run() int {
	root := cli.NewRootCmd(version)
	if err := root.Execute(); err != nil {
		var ece *cli.ExitCodeError
		if errors.As(err, &ece) {
			return ece.Code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
