// Package cmd implements the vhp command-line tree, grounded on the
// teacher's cmd/dwscript/cmd package: a cobra root command with run/test/
// lex/parse/version subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vhp [file]",
	Short: "vhp is a scripting-language runtime",
	Long: `vhp is a PHP-like scripting language runtime: a lexer, recursive-descent
parser, tree-walking evaluator, and bytecode compiler/VM sharing one object
model.

Running "vhp <file>" without a subcommand is a shorthand for "vhp run <file>".`,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) == 0 && evalExpr == "" {
			return c.Help()
		}
		return runScript(c, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVarP(&evalExpr, "eval", "r", "", "prepend the open sigil to <code> and run it")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
