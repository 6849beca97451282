package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leocavalcante/vhp/internal/parser"
)

var dumpAST bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a vhp source file and print its statements",
	Long: `Debugging command (not part of the core language) that runs the
lexer and parser stages and, with --dump-ast, prints every top-level
statement's Go representation, grounded on the teacher's
cmd/dwscript/cmd/parse.go.`,
	Args: cobra.ExactArgs(1),
	RunE: parseFile,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "print the parsed statements")
}

func parseFile(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	prog, err := parser.ParseProgram(string(content))
	if err != nil {
		exitWithError("%s", err)
	}
	fmt.Printf("parsed %d top-level statement(s)\n", len(prog.Statements))
	if dumpAST {
		for i, s := range prog.Statements {
			fmt.Printf("[%d] %#v\n", i, s)
		}
	}
	return nil
}
