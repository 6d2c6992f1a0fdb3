// Command bridge runs the media-bridge control plane: the conference
// registry, request router, shutdown coordinator, and load manager wired
// together by internal/bridge.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the bridge's version string, overridden by ldflags at build
// time.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Media-bridge control plane",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
