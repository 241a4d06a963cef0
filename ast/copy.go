// Copyright 2024 Slash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

// CopyStmt returns a deep copy of the given statement.
//
// Function values capture their body block by reference, and the REPL
// re-parses into a fresh tree on every command, so captured bodies have
// to be copied at function definition time. Evaluating the copy is
// equivalent to evaluating the original.
func CopyStmt(stmt Stmt) Stmt {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *ExpressionStmt:
		return &ExpressionStmt{Base: s.Base, Expression: CopyExpr(s.Expression)}
	case *VarStmt:
		return &VarStmt{Base: s.Base, Name: s.Name, Initializer: CopyExpr(s.Initializer)}
	case *SeqVarStmt:
		names := make([]string, len(s.Names))
		copy(names, s.Names)
		return &SeqVarStmt{Base: s.Base, Names: names, Initializer: CopyExpr(s.Initializer)}
	case *LoopStmt:
		return &LoopStmt{Base: s.Base, Condition: CopyExpr(s.Condition), Body: copyBlock(s.Body)}
	case *IterLoopStmt:
		return &IterLoopStmt{
			Base:     s.Base,
			VarName:  s.VarName,
			Iterable: CopyExpr(s.Iterable),
			Body:     copyBlock(s.Body),
		}
	case *IfStmt:
		return &IfStmt{
			Base:      s.Base,
			Condition: CopyExpr(s.Condition),
			Then:      copyBlock(s.Then),
			Else:      CopyStmt(s.Else),
		}
	case *CmdStmt:
		var args []Expr
		if s.Args != nil {
			args = make([]Expr, len(s.Args))
			for i, arg := range s.Args {
				args[i] = CopyExpr(arg)
			}
		}
		return &CmdStmt{Base: s.Base, Name: s.Name, Args: args}
	case *AssignStmt:
		return &AssignStmt{
			Base:   s.Base,
			Target: CopyExpr(s.Target),
			Op:     s.Op,
			Value:  CopyExpr(s.Value),
		}
	case *BlockStmt:
		return copyBlock(s)
	case *PipelineStmt:
		return &PipelineStmt{
			Base:  s.Base,
			Left:  CopyStmt(s.Left).(*CmdStmt),
			Right: CopyStmt(s.Right),
		}
	case *AssertStmt:
		return &AssertStmt{Base: s.Base, Expr: CopyExpr(s.Expr)}
	case *BinaryStmt:
		return &BinaryStmt{
			Base:      s.Base,
			Left:      CopyStmt(s.Left),
			Op:        s.Op,
			RightStmt: CopyStmt(s.RightStmt),
			RightExpr: CopyExpr(s.RightExpr),
		}
	case *AbruptStmt:
		return &AbruptStmt{Base: s.Base, Kind: s.Kind, ReturnExpr: CopyExpr(s.ReturnExpr)}
	}
	panic("ast: unknown statement type")
}

// CopyExpr returns a deep copy of the given expression.
func CopyExpr(expr Expr) Expr {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *UnaryExpr:
		return &UnaryExpr{Base: e.Base, Op: e.Op, Right: CopyExpr(e.Right)}
	case *BinaryExpr:
		return &BinaryExpr{Base: e.Base, Left: CopyExpr(e.Left), Op: e.Op, Right: CopyExpr(e.Right)}
	case *BoolLiteral:
		cp := *e
		return &cp
	case *NumberLiteral:
		cp := *e
		return &cp
	case *TextLiteral:
		cp := *e
		return &cp
	case *AccessExpr:
		cp := *e
		return &cp
	case *SubscriptExpr:
		return &SubscriptExpr{Base: e.Base, Target: CopyExpr(e.Target), Index: CopyExpr(e.Index)}
	case *SubshellExpr:
		return &SubshellExpr{Base: e.Base, Stmt: CopyStmt(e.Stmt)}
	case *StrExpr:
		cp := *e
		return &cp
	case *ListExpr:
		return &ListExpr{Base: e.Base, Elems: copySequence(e.Elems)}
	case *FunctionExpr:
		params := make([]string, len(e.Params))
		copy(params, e.Params)
		return &FunctionExpr{Base: e.Base, Params: params, Body: copyBlock(e.Body)}
	case *MapExpr:
		entries := make([]KeyValue, len(e.Entries))
		for i, kv := range e.Entries {
			entries[i] = KeyValue{Key: CopyExpr(kv.Key), Value: CopyExpr(kv.Value)}
		}
		return &MapExpr{Base: e.Base, Entries: entries}
	case *SequenceExpr:
		return copySequence(e)
	case *GroupingExpr:
		return &GroupingExpr{Base: e.Base, Expr: CopyExpr(e.Expr)}
	case *CastExpr:
		return &CastExpr{Base: e.Base, Expr: CopyExpr(e.Expr), TypeName: e.TypeName}
	case *CallExpr:
		return &CallExpr{Base: e.Base, Callee: CopyExpr(e.Callee), Args: copySequence(e.Args)}
	}
	panic("ast: unknown expression type")
}

func copyBlock(block *BlockStmt) *BlockStmt {
	if block == nil {
		return nil
	}
	stmts := make([]Stmt, len(block.Statements))
	for i, stmt := range block.Statements {
		stmts[i] = CopyStmt(stmt)
	}
	return &BlockStmt{Base: block.Base, Statements: stmts}
}

func copySequence(seq *SequenceExpr) *SequenceExpr {
	if seq == nil {
		return nil
	}
	elems := make([]Expr, len(seq.Seq))
	for i, e := range seq.Seq {
		elems[i] = CopyExpr(e)
	}
	return &SequenceExpr{Base: seq.Base, Seq: elems}
}
