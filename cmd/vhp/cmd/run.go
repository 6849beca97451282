package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leocavalcante/vhp/internal/builtins"
	"github.com/leocavalcante/vhp/internal/bytecode"
	"github.com/leocavalcante/vhp/internal/evaluator"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/parser"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

var (
	evalExpr string
	useVM    bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a vhp source file",
	Long: `Execute a vhp program from a file or inline code.

Examples:
  # Run a script file
  vhp run script.vhp

  # Evaluate inline code (the open sigil is prepended automatically)
  vhp run -r 'echo "Hello, World!";'

  # Run through the bytecode compiler/VM instead of the tree-walking evaluator
  vhp run --vm script.vhp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "r", "", "prepend the open sigil to <code> and run it")
	runCmd.Flags().BoolVar(&useVM, "vm", false, "execute via the bytecode compiler/VM instead of the evaluator")
}

func runScript(_ *cobra.Command, args []string) error {
	var input, filename string
	switch {
	case evalExpr != "":
		input = "<?php " + evalExpr
		filename = "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		input = string(content)
	default:
		return fmt.Errorf("either provide a file path or use -r for inline code")
	}

	prog, err := parser.ParseProgram(input)
	if err != nil {
		exitWithError("%s", err)
	}

	reg := object.NewRegistries()
	if useVM {
		compiled, err := bytecode.Compile(prog, reg)
		if err != nil {
			exitWithError("%s", err)
		}
		var vm *bytecode.VM
		btReg := builtins.NewWithOutput(func(callee value.Value, a []value.Value) (value.Value, error) {
			return vm.CallValue(callee, a)
		}, os.Stdout)
		vm = bytecode.NewVM(compiled, os.Stdout, btReg.Funcs())
		if err := vm.Run(); err != nil {
			exitWithError("%s", describeErr(err))
		}
		return nil
	}

	var ev *evaluator.Evaluator
	btReg := builtins.NewWithOutput(func(callee value.Value, a []value.Value) (value.Value, error) {
		return ev.CallValue(callee, a)
	}, os.Stdout)
	blt := map[string]evaluator.BuiltinFunc{}
	for name, fn := range btReg.Funcs() {
		blt[name] = evaluator.BuiltinFunc(fn)
	}
	ev = evaluator.New(reg, os.Stdout, blt)
	if err := ev.Run(prog); err != nil {
		exitWithError("%s", describeErr(err))
	}
	return nil
}

func describeErr(err error) string {
	if rte, ok := err.(*vherrors.RuntimeError); ok {
		return rte.Message
	}
	if ve, ok := err.(*vherrors.Exception); ok {
		return fmt.Sprintf("Uncaught %s: %s", ve.Value.ClassName, ve.Value.Message)
	}
	return err.Error()
}
