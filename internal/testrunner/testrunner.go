// Package testrunner parses and executes .vhpt test files, grounded on
// spec.md §6's section-delimited test format and the teacher's
// cmd/dwscript/cmd test helpers that drive .dws fixtures the same way.
package testrunner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/leocavalcante/vhp/internal/builtins"
	"github.com/leocavalcante/vhp/internal/evaluator"
	"github.com/leocavalcante/vhp/internal/object"
	"github.com/leocavalcante/vhp/internal/parser"
	"github.com/leocavalcante/vhp/internal/value"
	"github.com/leocavalcante/vhp/internal/vherrors"
)

// Test is one parsed .vhpt file.
type Test struct {
	Path        string
	Name        string
	Description string
	File        string
	Expect      string
	ExpectF     string
	ExpectError string
	SkipIf      string
	// Env is the optional --ENV-- section, a flat YAML string map applied
	// (and restored) around the run — an expansion of spec.md §6's format
	// for the "optional front-matter" SPEC_FULL.md's dependency table
	// promises, kept intentionally narrow: environment variables only.
	Env map[string]string
}

var sectionRe = regexp.MustCompile(`(?m)^--([A-Z_]+)--\n`)

// ParseFile reads and splits path into a Test.
func ParseFile(path string) (*Test, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	locs := sectionRe.FindAllStringSubmatchIndex(string(raw), -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%s: no sections found", path)
	}
	content := string(raw)
	sections := map[string]string{}
	for i, loc := range locs {
		name := content[loc[2]:loc[3]]
		bodyStart := loc[1]
		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		sections[name] = content[bodyStart:bodyEnd]
	}

	t := &Test{
		Path:        path,
		Name:        strings.TrimRight(sections["TEST"], "\n"),
		Description: strings.TrimRight(sections["DESCRIPTION"], "\n"),
		File:        sections["FILE"],
		Expect:      sections["EXPECT"],
		ExpectF:     sections["EXPECTF"],
		ExpectError: strings.TrimRight(sections["EXPECT_ERROR"], "\n"),
		SkipIf:      strings.TrimRight(sections["SKIPIF"], "\n"),
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%s: missing required --TEST-- section", path)
	}
	if _, ok := sections["FILE"]; !ok {
		return nil, fmt.Errorf("%s: missing required --FILE-- section", path)
	}
	_, hasExpect := sections["EXPECT"]
	_, hasExpectF := sections["EXPECTF"]
	_, hasExpectError := sections["EXPECT_ERROR"]
	if !hasExpect && !hasExpectF && !hasExpectError {
		return nil, fmt.Errorf("%s: must have one of --EXPECT--/--EXPECTF--/--EXPECT_ERROR--", path)
	}
	if raw, ok := sections["ENV"]; ok && strings.TrimSpace(raw) != "" {
		env := map[string]string{}
		if err := yaml.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("%s: invalid --ENV-- section: %w", path, err)
		}
		t.Env = env
	}
	return t, nil
}

// Discover finds every .vhpt file under root, recursively if root is a
// directory, sorted by path for deterministic run order.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".vhpt") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Result is the outcome of running one Test.
type Result struct {
	Test    *Test
	Skipped bool
	Reason  string
	Passed  bool
	Got     string
	Err     error
}

// Run executes t.File (via the tree-walking evaluator's Run, matching how
// every vhp program runs per spec.md §4.4) and checks its output/error
// against the test's expectation.
func Run(t *Test) Result {
	if t.SkipIf != "" {
		return Result{Test: t, Skipped: true, Reason: t.SkipIf}
	}
	for k, v := range t.Env {
		old, had := os.LookupEnv(k)
		os.Setenv(k, v)
		defer func(k, old string, had bool) {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		}(k, old, had)
	}

	prog, err := parser.ParseProgram(t.File)
	if err != nil {
		return checkErr(t, err)
	}

	var out bytes.Buffer
	reg := object.NewRegistries()
	var ev *evaluator.Evaluator
	btReg := builtins.NewWithOutput(func(callee value.Value, args []value.Value) (value.Value, error) {
		return ev.CallValue(callee, args)
	}, &out)
	blt := map[string]evaluator.BuiltinFunc{}
	for name, fn := range btReg.Funcs() {
		blt[name] = evaluator.BuiltinFunc(fn)
	}
	ev = evaluator.New(reg, &out, blt)
	runErr := ev.Run(prog)
	if runErr != nil {
		return checkErr(t, runErr)
	}

	got := normalize(out.String())
	if t.ExpectF != "" {
		if matchExpectF(normalize(t.ExpectF), got) {
			return Result{Test: t, Passed: true, Got: got}
		}
		return Result{Test: t, Passed: false, Got: got}
	}
	want := normalize(t.Expect)
	return Result{Test: t, Passed: got == want, Got: got}
}

func checkErr(t *Test, err error) Result {
	if t.ExpectError == "" {
		return Result{Test: t, Passed: false, Err: err}
	}
	msg := err.Error()
	if rte, ok := err.(*vherrors.RuntimeError); ok {
		msg = rte.Message
	}
	if ve, ok := err.(*vherrors.Exception); ok {
		msg = ve.Value.Message
	}
	return Result{Test: t, Passed: strings.Contains(msg, t.ExpectError), Got: msg}
}

// normalize trims surrounding whitespace and folds CRLF to LF, per spec.md
// §6's output-comparison rule.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// matchExpectF implements EXPECTF's PHPT-style wildcard comparison: %s any
// run of characters, %d one or more digits, %a anything (including
// newlines), %w optional whitespace, %c a single character.
func matchExpectF(pattern, actual string) bool {
	var re strings.Builder
	re.WriteString("(?s)^")
	i := 0
	for i < len(pattern) {
		if pattern[i] == '%' && i+1 < len(pattern) {
			switch pattern[i+1] {
			case 's':
				re.WriteString(`.*?`)
				i += 2
				continue
			case 'd':
				re.WriteString(`\d+`)
				i += 2
				continue
			case 'a':
				re.WriteString(`.*`)
				i += 2
				continue
			case 'w':
				re.WriteString(`\s*`)
				i += 2
				continue
			case 'c':
				re.WriteString(`.`)
				i += 2
				continue
			}
		}
		re.WriteString(regexp.QuoteMeta(string(pattern[i])))
		i++
	}
	re.WriteString("$")
	rx, err := regexp.Compile(re.String())
	if err != nil {
		return false
	}
	return rx.MatchString(actual)
}
