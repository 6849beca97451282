// Command vhp is the vhp language runtime's command-line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/leocavalcante/vhp/cmd/vhp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
