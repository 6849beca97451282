package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leocavalcante/vhp/internal/lexer"
	"github.com/leocavalcante/vhp/internal/token"
)

var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "Tokenize a vhp source file and print its tokens",
	Long: `Debugging command (not part of the core language) that runs only the
lexer stage and prints every token it produces, grounded on the teacher's
cmd/dwscript/cmd/lex.go.`,
	Args: cobra.ExactArgs(1),
	RunE: lexFile,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func lexFile(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	l := lexer.New(string(content))
	for {
		tok, err := l.Next()
		if err != nil {
			return err
		}
		fmt.Println(tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}
