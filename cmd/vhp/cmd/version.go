package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vhp version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Printf("vhp version %s\nCommit: %s\nBuilt:  %s\n", Version, GitCommit, BuildDate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
