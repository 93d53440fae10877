package syntax

import (
	"strconv"
	"strings"
)

// Pos records the 1-based source line a node starts on.
type Pos struct {
	Line int
}

// LineNo returns the node's source line.
func (p Pos) LineNo() int { return p.Line }

// Stmt is any statement node.
type Stmt interface {
	LineNo() int
	stmtNode()
}

// Expr is any expression node. String renders the expression back to
// source form; annotations and highlight labels use it.
type Expr interface {
	String() string
	exprNode()
}

// Module is a parsed program.
type Module struct {
	Body []Stmt
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type Param struct {
	Name    string
	Default Expr
}

type FuncDef struct {
	Pos
	Name   string
	Params []Param
	Body   []Stmt
}

type Branch struct {
	Pos
	Cond Expr
	Body []Stmt
}

type If struct {
	Pos
	Branches []Branch
	Else     []Stmt
}

type For struct {
	Pos
	Var  string
	Iter Expr
	Body []Stmt
}

type While struct {
	Pos
	Cond Expr
	Body []Stmt
}

type Return struct {
	Pos
	Value Expr // nil for a bare return
}

// Assign covers `x = e`, `a[i] = e` and tuple forms such as
// `a[i], a[j] = a[j], a[i]`. Targets are Name or Index expressions.
type Assign struct {
	Pos
	Targets []Expr
	Values  []Expr
}

type AugAssign struct {
	Pos
	Target Expr
	Op     string // "+", "-", "*", "/", "//", "%"
	Value  Expr
}

type ExprStmt struct {
	Pos
	X Expr
}

type Pass struct{ Pos }

type Break struct{ Pos }

type Continue struct{ Pos }

type Global struct {
	Pos
	Names []string
}

// Unsupported is a statement outside the supported subset. It is skipped
// at run time.
type Unsupported struct {
	Pos
	Text string
}

func (*FuncDef) stmtNode()     {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*Return) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Global) stmtNode()      {}
func (*Unsupported) stmtNode() {}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

type Name struct {
	Name string
}

type IntLit struct {
	Value int64
}

type FloatLit struct {
	Value float64
}

type StrLit struct {
	Value string
}

// FStringPart is either literal text or an interpolated expression with an
// optional format spec (the text after ':').
type FStringPart struct {
	Text string
	Expr Expr
	Spec string
}

type FString struct {
	Parts []FStringPart
}

type BoolLit struct {
	Value bool
}

type NoneLit struct{}

type ListLit struct {
	Elems []Expr
}

// TupleLit evaluates to a list; tuples have no separate runtime type.
type TupleLit struct {
	Elems []Expr
}

// Paren keeps source parentheses so String round-trips grouping.
type Paren struct {
	X Expr
}

type Unary struct {
	Op string // "-", "+"
	X  Expr
}

type Not struct {
	X Expr
}

type Binary struct {
	Op   string // "+", "-", "*", "/", "//", "%", "**"
	L, R Expr
}

// BoolOp is a short-circuiting `and` / `or`.
type BoolOp struct {
	Op   string
	L, R Expr
}

// Compare is a (possibly chained) comparison: First Ops[0] Rest[0] Ops[1] Rest[1] ...
type Compare struct {
	First Expr
	Ops   []string // "==", "!=", "<", "<=", ">", ">=", "in", "not in", "is", "is not"
	Rest  []Expr
}

type IfExpr struct {
	Cond, Then, Else Expr
}

type Keyword struct {
	Name  string
	Value Expr
}

type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

type Index struct {
	X     Expr
	Index Expr
}

type Slice struct {
	X               Expr
	Low, High, Step Expr
}

type Attr struct {
	X    Expr
	Name string
}

func (*Name) exprNode()     {}
func (*IntLit) exprNode()   {}
func (*FloatLit) exprNode() {}
func (*StrLit) exprNode()   {}
func (*FString) exprNode()  {}
func (*BoolLit) exprNode()  {}
func (*NoneLit) exprNode()  {}
func (*ListLit) exprNode()  {}
func (*TupleLit) exprNode() {}
func (*Paren) exprNode()    {}
func (*Unary) exprNode()    {}
func (*Not) exprNode()      {}
func (*Binary) exprNode()   {}
func (*BoolOp) exprNode()   {}
func (*Compare) exprNode()  {}
func (*IfExpr) exprNode()   {}
func (*Call) exprNode()     {}
func (*Index) exprNode()    {}
func (*Slice) exprNode()    {}
func (*Attr) exprNode()     {}

func (e *Name) String() string     { return e.Name }
func (e *IntLit) String() string   { return strconv.FormatInt(e.Value, 10) }
func (e *FloatLit) String() string { return strconv.FormatFloat(e.Value, 'g', -1, 64) }
func (e *StrLit) String() string   { return quote(e.Value) }
func (e *NoneLit) String() string  { return "None" }

func (e *BoolLit) String() string {
	if e.Value {
		return "True"
	}
	return "False"
}

func (e *FString) String() string {
	var b strings.Builder
	b.WriteString("f'")
	for _, part := range e.Parts {
		if part.Expr == nil {
			b.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(part.Text))
			continue
		}
		b.WriteString("{" + part.Expr.String())
		if part.Spec != "" {
			b.WriteString(":" + part.Spec)
		}
		b.WriteString("}")
	}
	b.WriteString("'")
	return b.String()
}

func (e *ListLit) String() string { return "[" + joinExprs(e.Elems) + "]" }

func (e *TupleLit) String() string {
	if len(e.Elems) == 1 {
		return "(" + e.Elems[0].String() + ",)"
	}
	return "(" + joinExprs(e.Elems) + ")"
}

func (e *Paren) String() string  { return "(" + e.X.String() + ")" }
func (e *Unary) String() string  { return e.Op + e.X.String() }
func (e *Not) String() string    { return "not " + e.X.String() }
func (e *Binary) String() string { return e.L.String() + " " + e.Op + " " + e.R.String() }
func (e *BoolOp) String() string { return e.L.String() + " " + e.Op + " " + e.R.String() }

func (e *Compare) String() string {
	var b strings.Builder
	b.WriteString(e.First.String())
	for i, op := range e.Ops {
		b.WriteString(" " + op + " " + e.Rest[i].String())
	}
	return b.String()
}

func (e *IfExpr) String() string {
	return e.Then.String() + " if " + e.Cond.String() + " else " + e.Else.String()
}

func (e *Call) String() string {
	args := make([]string, 0, len(e.Args)+len(e.Keywords))
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	for _, kw := range e.Keywords {
		args = append(args, kw.Name+"="+kw.Value.String())
	}
	return e.Func.String() + "(" + strings.Join(args, ", ") + ")"
}

func (e *Index) String() string { return e.X.String() + "[" + e.Index.String() + "]" }

func (e *Slice) String() string {
	part := func(x Expr) string {
		if x == nil {
			return ""
		}
		return x.String()
	}
	s := e.X.String() + "[" + part(e.Low) + ":" + part(e.High)
	if e.Step != nil {
		s += ":" + e.Step.String()
	}
	return s + "]"
}

func (e *Attr) String() string { return e.X.String() + "." + e.Name }

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
