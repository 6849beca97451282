package evaluator

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
)

// generatorHandle is the goroutine-backed continuation behind a running
// generator, mirroring fiberHandle's single-runnable-side-at-a-time
// handoff but keyed per-generator rather than per-evaluator, since a
// generator's consumer is whichever frame is driving it (often a foreach),
// not a sibling coroutine swapped in wholesale.
type generatorHandle struct {
	out     chan generatorItem
	in      chan value.Value
	done    chan value.Value // closes/sends final return value
	autoKey int64
}

type generatorItem struct {
	key   value.Value
	value value.Value
}

// containsYield reports whether body contains a `yield`/`yield from`
// expression at this function's own nesting level (not inside a nested
// anonymous function, which has its own generator-ness), used to decide
// whether a call produces a Generator instead of running eagerly.
func containsYield(body []ast.Statement) bool {
	found := false
	var visitStmt func(ast.Statement)
	var visitExpr func(ast.Expression)
	visitExpr = func(expr ast.Expression) {
		if found || expr == nil {
			return
		}
		switch x := expr.(type) {
		case *ast.Yield:
			found = true
		case *ast.YieldFrom:
			found = true
		case *ast.Infix:
			visitExpr(x.Left)
			visitExpr(x.Right)
		case *ast.Assign:
			visitExpr(x.Value)
		case *ast.Call:
			for _, a := range x.Args {
				visitExpr(a.Value)
			}
		case *ast.Ternary:
			visitExpr(x.Cond)
			visitExpr(x.Then)
			visitExpr(x.Else)
		}
	}
	visitStmt = func(stmt ast.Statement) {
		if found || stmt == nil {
			return
		}
		switch s := stmt.(type) {
		case *ast.ExpressionStatement:
			visitExpr(s.Expr)
		case *ast.Echo:
			for _, v := range s.Values {
				visitExpr(v)
			}
		case *ast.Block:
			for _, st := range s.Statements {
				visitStmt(st)
			}
		case *ast.If:
			visitStmt(s.Then)
			for _, ei := range s.ElseIfs {
				visitStmt(ei.Body)
			}
			visitStmt(s.Else)
		case *ast.While:
			visitStmt(s.Body)
		case *ast.DoWhile:
			visitStmt(s.Body)
		case *ast.For:
			visitStmt(s.Body)
		case *ast.Foreach:
			visitStmt(s.Body)
		case *ast.Return:
			visitExpr(s.Value)
		}
	}
	for _, s := range body {
		visitStmt(s)
		if found {
			return true
		}
	}
	return false
}

// startGenerator launches body on a goroutine, suspending at every yield
// point until the first value is ready (or the body returns without
// yielding), then returns the Generator handle.
func (e *Evaluator) startGenerator(params []ast.Param, body []ast.Statement, positional []value.Value, named map[string]value.Value, newEnv *Environment) *value.Generator {
	h := &generatorHandle{out: make(chan generatorItem), in: make(chan value.Value), done: make(chan value.Value, 1)}
	gen := &value.Generator{Suspended: h}

	// savedGen is captured before spawning: the child goroutine writes
	// e.currentGenerator immediately, so reading it again here (rather than
	// after the go statement) avoids a data race on the shared field.
	savedGen := e.currentGenerator
	go func() {
		e.currentGenerator = gen
		v, _ := e.callUserFunction(params, body, positional, named, "", newEnv)
		close(h.out)
		h.done <- v
	}()
	// The spawning goroutine must not touch e.currentGenerator again until
	// the child has either yielded or finished — advanceGenerator's receive
	// from h.out is the synchronization point, same handoff discipline as
	// fiberStart's blocking receive from h.fromFiber.
	e.advanceGenerator(gen)
	e.currentGenerator = savedGen
	return gen
}

// advanceGenerator pulls the next yielded item (or the final return value
// if the body has finished), updating gen's Current{K,V}/Done fields.
func (e *Evaluator) advanceGenerator(gen *value.Generator) {
	h := gen.Suspended.(*generatorHandle)
	item, ok := <-h.out
	if !ok {
		gen.Done = true
		return
	}
	gen.CurrentK, gen.CurrentV = item.key, item.value
}

func (e *Evaluator) generatorNext(gen *value.Generator, sent value.Value) {
	if gen.Done {
		return
	}
	h := gen.Suspended.(*generatorHandle)
	savedGen := e.currentGenerator
	e.currentGenerator = gen
	h.in <- sent
	e.advanceGenerator(gen)
	e.currentGenerator = savedGen
}
