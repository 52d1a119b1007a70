// Command set-ui-version stamps a release version into the web UI's
// data/index.html by replacing the UI_VERSION_PLACEHOLDER token.
//
// Usage:
//
//	set-ui-version [flags] <version>
package main

import (
	"os"

	"github.com/jmgilman/uiversion/internal/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
