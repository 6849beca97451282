package bytecode

import (
	"github.com/leocavalcante/vhp/internal/ast"
	"github.com/leocavalcante/vhp/internal/value"
)

func (fc *funcCompiler) compileStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		fc.compileStmt(s)
	}
}

// compileStmt lowers one statement, grounded on evaluator/statements.go's
// execStatement switch.
func (fc *funcCompiler) compileStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		fc.compileExpr(s.Expr)
		fc.emit(OpPop)
	case *ast.InlineHTML:
		k := fc.fn.addConst(value.Str(s.Text))
		fc.emit(OpLoadConst, k)
		fc.emit(OpEcho)
	case *ast.Echo:
		for _, v := range s.Values {
			fc.compileExpr(v)
			fc.emit(OpEcho)
		}
	case *ast.Block:
		fc.compileStmts(s.Statements)
	case *ast.If:
		fc.compileIf(s)
	case *ast.While:
		fc.compileWhile(s)
	case *ast.DoWhile:
		fc.compileDoWhile(s)
	case *ast.For:
		fc.compileFor(s)
	case *ast.Foreach:
		fc.compileForeach(s)
	case *ast.Switch:
		fc.compileSwitch(s)
	case *ast.Break:
		bc := fc.breakableAt(levelsOrOne(s.Levels))
		fc.exitTries(bc.triesAtPush)
		idx := fc.emit(OpJump, 0)
		bc.breakPatches = append(bc.breakPatches, idx)
	case *ast.Continue:
		bc := fc.breakableAt(levelsOrOne(s.Levels))
		fc.exitTries(bc.triesAtPush)
		idx := fc.emit(OpJump, 0)
		bc.continuePatches = append(bc.continuePatches, idx)
	case *ast.Return:
		fc.exitTries(0)
		if s.Value == nil {
			fc.emit(OpReturnNull)
		} else {
			fc.compileExpr(s.Value)
			fc.emit(OpReturn)
		}
	case *ast.FunctionDecl, *ast.ClassDecl, *ast.InterfaceDecl, *ast.TraitDecl, *ast.EnumDecl:
		// already handled by the registration pre-pass; nothing to emit.
	case *ast.Try:
		fc.compileTry(s)
	case *ast.Throw:
		fc.compileExpr(s.Value)
		fc.emit(OpThrow)
	case *ast.GlobalStmt:
		for _, name := range s.Names {
			fc.global[name] = true
		}
	case *ast.ConstStmt:
		fc.compileExpr(s.Value)
		fc.emit(OpPopStore, fc.localSlot(s.Name))
	}
}

func levelsOrOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func (fc *funcCompiler) compileIf(s *ast.If) {
	fc.compileExpr(s.Cond)
	elseJump := fc.emit(OpJumpIfFalse, 0)
	fc.compileStmt(s.Then)
	endJumps := []int{fc.emit(OpJump, 0)}
	fc.patch(elseJump, len(fc.fn.Instructions))
	for _, ei := range s.ElseIfs {
		fc.compileExpr(ei.Cond)
		nextJump := fc.emit(OpJumpIfFalse, 0)
		fc.compileStmt(ei.Body)
		endJumps = append(endJumps, fc.emit(OpJump, 0))
		fc.patch(nextJump, len(fc.fn.Instructions))
	}
	if s.Else != nil {
		fc.compileStmt(s.Else)
	}
	fc.patchAll(endJumps, len(fc.fn.Instructions))
}

func (fc *funcCompiler) compileWhile(s *ast.While) {
	condStart := len(fc.fn.Instructions)
	fc.compileExpr(s.Cond)
	exitJump := fc.emit(OpJumpIfFalse, 0)
	bc := &breakableCtx{triesAtPush: len(fc.tries)}
	fc.breakables = append(fc.breakables, bc)
	fc.compileStmt(s.Body)
	fc.breakables = fc.breakables[:len(fc.breakables)-1]
	fc.patchAll(bc.continuePatches, condStart)
	fc.emit(OpJump, condStart)
	end := len(fc.fn.Instructions)
	fc.patch(exitJump, end)
	fc.patchAll(bc.breakPatches, end)
}

func (fc *funcCompiler) compileDoWhile(s *ast.DoWhile) {
	bodyStart := len(fc.fn.Instructions)
	bc := &breakableCtx{triesAtPush: len(fc.tries)}
	fc.breakables = append(fc.breakables, bc)
	fc.compileStmt(s.Body)
	fc.breakables = fc.breakables[:len(fc.breakables)-1]
	condStart := len(fc.fn.Instructions)
	fc.patchAll(bc.continuePatches, condStart)
	fc.compileExpr(s.Cond)
	fc.emit(OpJumpIfTrue, bodyStart)
	end := len(fc.fn.Instructions)
	fc.patchAll(bc.breakPatches, end)
}

func (fc *funcCompiler) compileFor(s *ast.For) {
	for _, e := range s.Init {
		fc.compileExpr(e)
		fc.emit(OpPop)
	}
	condStart := len(fc.fn.Instructions)
	exitJump := -1
	if s.Cond != nil {
		fc.compileExpr(s.Cond)
		exitJump = fc.emit(OpJumpIfFalse, 0)
	}
	bc := &breakableCtx{triesAtPush: len(fc.tries)}
	fc.breakables = append(fc.breakables, bc)
	fc.compileStmt(s.Body)
	fc.breakables = fc.breakables[:len(fc.breakables)-1]
	updateStart := len(fc.fn.Instructions)
	fc.patchAll(bc.continuePatches, updateStart)
	for _, u := range s.Update {
		fc.compileExpr(u)
		fc.emit(OpPop)
	}
	fc.emit(OpJump, condStart)
	end := len(fc.fn.Instructions)
	if exitJump >= 0 {
		fc.patch(exitJump, end)
	}
	fc.patchAll(bc.breakPatches, end)
}

// compileForeach lowers both Array and Generator collections through the
// same slot-indexed iterator opcodes (OpIterInit/OpIterNext), a namespace
// separate from locals since value.Value's closed interface rules out
// storing an iterator struct as a plain local.
func (fc *funcCompiler) compileForeach(s *ast.Foreach) {
	fc.compileExpr(s.Collection)
	slot := fc.newIterSlot()
	fc.emit(OpIterInit, slot)
	loopStart := len(fc.fn.Instructions)
	nextIdx := fc.emit(OpIterNext, slot, 0)
	fc.emit(OpPopStore, fc.localSlot(s.ValueVar))
	if s.KeyVar != "" {
		fc.emit(OpPopStore, fc.localSlot(s.KeyVar))
	} else {
		fc.emit(OpPop)
	}
	bc := &breakableCtx{triesAtPush: len(fc.tries)}
	fc.breakables = append(fc.breakables, bc)
	fc.compileStmt(s.Body)
	fc.breakables = fc.breakables[:len(fc.breakables)-1]
	fc.patchAll(bc.continuePatches, loopStart)
	fc.emit(OpJump, loopStart)
	end := len(fc.fn.Instructions)
	fc.patchB(nextIdx, end)
	fc.patchAll(bc.breakPatches, end)
}

// compileSwitch compiles the loose-equality dispatch chain PHP's fallthrough
// switch needs: a `break` always exits to the end; a `continue` at switch
// level (no enclosing loop) is absorbed as "finish this case, fall into the
// next", matching evaluator/statements.go's execSwitch/consumeLoop pairing.
func (fc *funcCompiler) compileSwitch(s *ast.Switch) {
	fc.compileExpr(s.Subject)
	subjSlot := fc.newHiddenLocal()
	fc.emit(OpPopStore, subjSlot)

	type pending struct {
		caseIdx int
		jumpIdx int
	}
	var tests []pending
	defaultIdx := -1
	for i, cse := range s.Cases {
		if cse.Cond == nil {
			defaultIdx = i
			continue
		}
		fc.emit(OpLoadLocal, subjSlot)
		fc.compileExpr(cse.Cond)
		fc.emit(OpBinOp, fc.fn.addConst("=="))
		j := fc.emit(OpJumpIfTrue, 0)
		tests = append(tests, pending{i, j})
	}
	noMatchJump := fc.emit(OpJump, 0)

	bc := &breakableCtx{isSwitch: true, triesAtPush: len(fc.tries)}
	fc.breakables = append(fc.breakables, bc)

	caseStarts := make([]int, len(s.Cases))
	for i, cse := range s.Cases {
		caseStarts[i] = len(fc.fn.Instructions)
		fc.compileStmts(cse.Statements)
		fc.patchAll(bc.continuePatches, len(fc.fn.Instructions))
		bc.continuePatches = nil
	}
	end := len(fc.fn.Instructions)

	fc.breakables = fc.breakables[:len(fc.breakables)-1]

	for _, t := range tests {
		fc.patch(t.jumpIdx, caseStarts[t.caseIdx])
	}
	if defaultIdx >= 0 {
		fc.patch(noMatchJump, caseStarts[defaultIdx])
	} else {
		fc.patch(noMatchJump, end)
	}
	fc.patchAll(bc.breakPatches, end)
}

// compileTry lowers try/catch/finally entirely into bytecode: catch-type
// testing is a dispatch stub reached only via the runtime raise() handler
// search, never by straight-line fallthrough, so a fatal (non-catchable)
// error can skip it altogether while a thrown value always reaches it.
func (fc *funcCompiler) compileTry(s *ast.Try) {
	setupIdx := fc.emit(OpSetupTry, 0)
	tc := &tryCtx{finally: s.Finally}
	fc.tries = append(fc.tries, tc)
	fc.compileStmts(s.Body)
	fc.tries = fc.tries[:len(fc.tries)-1]
	fc.emit(OpPopTry)
	toFinally := fc.emit(OpJump, 0)

	dispatchStart := len(fc.fn.Instructions)
	fc.patch(setupIdx, dispatchStart)

	var catchEndJumps []int
	for _, cc := range s.Catches {
		typesConst := fc.fn.addConst(append([]string(nil), cc.Types...))
		fc.emit(OpDup)
		fc.emit(OpExcIsType, typesConst)
		nextTest := fc.emit(OpJumpIfFalse, 0)
		if cc.VarName != "" {
			fc.emit(OpPopStore, fc.localSlot(cc.VarName))
		} else {
			fc.emit(OpPop)
		}
		// Break/continue/return from inside a catch body must still run this
		// try's finally, so the tryCtx is active again for the catch body,
		// without re-pushing a handler (the handler was already popped by
		// raise() the moment dispatch began).
		fc.tries = append(fc.tries, tc)
		fc.compileStmts(cc.Body)
		fc.tries = fc.tries[:len(fc.tries)-1]
		catchEndJumps = append(catchEndJumps, fc.emit(OpJump, 0))
		fc.patch(nextTest, len(fc.fn.Instructions))
	}
	fc.emit(OpRethrow)

	finallyStart := len(fc.fn.Instructions)
	fc.patch(toFinally, finallyStart)
	fc.patchAll(catchEndJumps, finallyStart)
	fc.compileStmts(s.Finally)
}
