package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leocavalcante/vhp/internal/testrunner"
)

var testCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Run .vhpt test files",
	Long: `Run one .vhpt file, or every .vhpt file found recursively under a
directory (default: the current directory).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTests(_ *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	paths, err := testrunner.Discover(root)
	if err != nil {
		return fmt.Errorf("failed to discover tests under %s: %w", root, err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no .vhpt files found under %s\n", root)
		return nil
	}

	var passed, failed, skipped int
	for _, p := range paths {
		t, err := testrunner.ParseFile(p)
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %s\n", p, err)
			continue
		}
		res := testrunner.Run(t)
		switch {
		case res.Skipped:
			skipped++
			if verbose {
				fmt.Printf("SKIP %s (%s): %s\n", t.Name, p, res.Reason)
			}
		case res.Passed:
			passed++
			if verbose {
				fmt.Printf("PASS %s (%s)\n", t.Name, p)
			}
		default:
			failed++
			fmt.Printf("FAIL %s (%s)\n", t.Name, p)
			if res.Err != nil {
				fmt.Printf("  error: %s\n", res.Err)
			} else {
				fmt.Printf("  got:      %q\n", res.Got)
				if t.ExpectF != "" {
					fmt.Printf("  expectf:  %q\n", t.ExpectF)
				} else {
					fmt.Printf("  expected: %q\n", t.Expect)
				}
			}
		}
	}

	fmt.Printf("%d passed, %d failed, %d skipped (%d total)\n", passed, failed, skipped, len(paths))
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
