package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes why a statement could not be parsed.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

var augOps = map[TokenType]string{
	PLUS_ASSIGN:    "+",
	MINUS_ASSIGN:   "-",
	STAR_ASSIGN:    "*",
	SLASH_ASSIGN:   "/",
	DSLASH_ASSIGN:  "//",
	PERCENT_ASSIGN: "%",
}

var compareOps = map[TokenType]string{
	EQ:  "==",
	NEQ: "!=",
	LT:  "<",
	LE:  "<=",
	GT:  ">",
	GE:  ">=",
}

type parser struct {
	toks  []Token
	i     int
	lines []string
}

// Parse parses a whole program. It never fails: statements that cannot be
// parsed come back as *Unsupported together with any block they own.
func Parse(src string) *Module {
	p := &parser{
		toks:  Tokenize(src),
		lines: strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n"),
	}
	mod := &Module{}
	for !p.check(EOF) {
		mod.Body = append(mod.Body, p.statement()...)
	}
	return mod
}

// ParseExpr parses a single expression.
func ParseExpr(src string) (Expr, error) {
	p := &parser{toks: Tokenize(strings.TrimSpace(src))}
	x, err := p.test()
	if err != nil {
		return nil, err
	}
	p.match(NEWLINE)
	if !p.check(EOF) {
		return nil, p.errorf("unexpected %q after expression", p.peek().Lexeme)
	}
	return x, nil
}

//-----------------------------------------------------------------------------
// Token helpers
//-----------------------------------------------------------------------------

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) peekAt(n int) Token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(tt TokenType, what string) (Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return Token{}, p.errorf("expected %s", what)
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.peek()
	return &ParseError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) lineText(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return strings.TrimSpace(p.lines[line-1])
}

func (p *parser) atStatementEnd() bool {
	switch p.peek().Type {
	case NEWLINE, SEMICOLON, EOF:
		return true
	}
	return false
}

func startsExpr(tt TokenType) bool {
	switch tt {
	case NAME, INT, FLOAT, STRING, FSTRING, LPAREN, LBRACKET, MINUS, PLUS, NOT, TRUE, FALSE, NONE:
		return true
	}
	return false
}

// skipBlock consumes an INDENT ... DEDENT run including nested blocks.
func (p *parser) skipBlock() {
	depth := 0
	for !p.check(EOF) {
		switch p.advance().Type {
		case INDENT:
			depth++
		case DEDENT:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// recover skips the rest of the logical line and the block it introduces.
func (p *parser) recover() {
	for !p.check(NEWLINE) && !p.check(EOF) {
		p.advance()
	}
	p.match(NEWLINE)
	if p.check(INDENT) {
		p.skipBlock()
	}
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (p *parser) statement() []Stmt {
	start := p.i
	tok := p.peek()

	var stmts []Stmt
	var err error
	switch tok.Type {
	case DEF:
		stmts, err = one(p.funcDef())
	case IF:
		stmts, err = one(p.ifStmt())
	case FOR:
		stmts, err = one(p.forStmt())
	case WHILE:
		stmts, err = one(p.whileStmt())
	case INDENT:
		p.skipBlock()
		return []Stmt{&Unsupported{Pos: Pos{tok.Line}, Text: p.lineText(tok.Line)}}
	case DEDENT, NEWLINE:
		p.advance()
		return nil
	default:
		stmts, err = p.simpleLine()
	}
	if err == nil {
		return stmts
	}
	p.i = start
	p.recover()
	return []Stmt{&Unsupported{Pos: Pos{tok.Line}, Text: p.lineText(tok.Line)}}
}

func one(s Stmt, err error) ([]Stmt, error) {
	if err != nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

// suite parses the body after a compound header's ':': either an indented
// block or simple statements on the same line.
func (p *parser) suite() ([]Stmt, error) {
	if !p.match(NEWLINE) {
		return p.simpleLine()
	}
	if !p.match(INDENT) {
		return nil, p.errorf("expected an indented block")
	}
	var body []Stmt
	for !p.check(DEDENT) && !p.check(EOF) {
		body = append(body, p.statement()...)
	}
	p.match(DEDENT)
	return body, nil
}

func (p *parser) funcDef() (Stmt, error) {
	tok := p.advance()
	name, err := p.expect(NAME, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	fn := &FuncDef{Pos: Pos{tok.Line}, Name: name.Lexeme}
	for !p.check(RPAREN) {
		param, err := p.expect(NAME, "parameter name")
		if err != nil {
			return nil, err
		}
		if p.match(COLON) {
			if _, err := p.test(); err != nil {
				return nil, err
			}
		}
		var def Expr
		if p.match(ASSIGN) {
			if def, err = p.test(); err != nil {
				return nil, err
			}
		}
		fn.Params = append(fn.Params, Param{Name: param.Lexeme, Default: def})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if p.check(MINUS) && p.peekAt(1).Type == GT {
		p.advance()
		p.advance()
		if _, err := p.test(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	if fn.Body, err = p.suite(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	tok := p.advance()
	branch, err := p.branch(tok)
	if err != nil {
		return nil, err
	}
	stmt := &If{Pos: Pos{tok.Line}, Branches: []Branch{branch}}
	for p.check(ELIF) {
		branch, err := p.branch(p.advance())
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, branch)
	}
	if p.match(ELSE) {
		if _, err := p.expect(COLON, "':'"); err != nil {
			return nil, err
		}
		if stmt.Else, err = p.suite(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) branch(tok Token) (Branch, error) {
	cond, err := p.test()
	if err != nil {
		return Branch{}, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return Branch{}, err
	}
	body, err := p.suite()
	if err != nil {
		return Branch{}, err
	}
	return Branch{Pos: Pos{tok.Line}, Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	tok := p.advance()
	name, err := p.expect(NAME, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'in'"); err != nil {
		return nil, err
	}
	iter, tuple, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	return &For{Pos: Pos{tok.Line}, Var: name.Lexeme, Iter: pack(iter, tuple), Body: body}, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	tok := p.advance()
	cond, err := p.test()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	return &While{Pos: Pos{tok.Line}, Cond: cond, Body: body}, nil
}

// simpleLine parses `stmt (; stmt)* NEWLINE`.
func (p *parser) simpleLine() ([]Stmt, error) {
	var out []Stmt
	for {
		s, err := p.simpleStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if !p.match(SEMICOLON) || p.check(NEWLINE) || p.check(EOF) {
			break
		}
	}
	if !p.match(NEWLINE) && !p.check(EOF) {
		return nil, p.errorf("unexpected %q", p.peek().Lexeme)
	}
	return out, nil
}

func (p *parser) simpleStatement() (Stmt, error) {
	tok := p.peek()
	pos := Pos{Line: tok.Line}
	switch tok.Type {
	case PASS:
		p.advance()
		return &Pass{pos}, nil
	case BREAK:
		p.advance()
		return &Break{pos}, nil
	case CONTINUE:
		p.advance()
		return &Continue{pos}, nil
	case RETURN:
		p.advance()
		if p.atStatementEnd() {
			return &Return{Pos: pos}, nil
		}
		xs, tuple, err := p.exprList()
		if err != nil {
			return nil, err
		}
		return &Return{Pos: pos, Value: pack(xs, tuple)}, nil
	case GLOBAL:
		p.advance()
		g := &Global{Pos: pos}
		for {
			name, err := p.expect(NAME, "name")
			if err != nil {
				return nil, err
			}
			g.Names = append(g.Names, name.Lexeme)
			if !p.match(COMMA) {
				break
			}
		}
		return g, nil
	case RESERVED:
		return nil, p.errorf("%q is not supported", tok.Lexeme)
	}

	lhs, tuple, err := p.exprList()
	if err != nil {
		return nil, err
	}

	if op, ok := augOps[p.peek().Type]; ok {
		p.advance()
		if tuple || !assignable(lhs[0]) {
			return nil, p.errorf("invalid augmented assignment target")
		}
		rhs, rtuple, err := p.exprList()
		if err != nil {
			return nil, err
		}
		return &AugAssign{Pos: pos, Target: lhs[0], Op: op, Value: pack(rhs, rtuple)}, nil
	}

	if p.match(ASSIGN) {
		for _, target := range lhs {
			if !assignable(target) {
				return nil, p.errorf("cannot assign to %s", target)
			}
		}
		rhs, rtuple, err := p.exprList()
		if err != nil {
			return nil, err
		}
		if p.check(ASSIGN) {
			return nil, p.errorf("chained assignment is not supported")
		}
		if len(lhs) == 1 {
			rhs = []Expr{pack(rhs, rtuple)}
		} else if len(rhs) > 1 && len(rhs) != len(lhs) {
			return nil, p.errorf("cannot unpack %d values into %d targets", len(rhs), len(lhs))
		}
		return &Assign{Pos: pos, Targets: lhs, Values: rhs}, nil
	}

	if tuple {
		return &ExprStmt{Pos: pos, X: &TupleLit{Elems: lhs}}, nil
	}
	return &ExprStmt{Pos: pos, X: lhs[0]}, nil
}

func assignable(x Expr) bool {
	switch x.(type) {
	case *Name, *Index:
		return true
	}
	return false
}

func pack(xs []Expr, tuple bool) Expr {
	if tuple {
		return &TupleLit{Elems: xs}
	}
	return xs[0]
}

//-----------------------------------------------------------------------------
// Expressions, lowest precedence first
//-----------------------------------------------------------------------------

// exprList parses `test (, test)* [,]`; tuple reports whether a comma was seen.
func (p *parser) exprList() ([]Expr, bool, error) {
	first, err := p.test()
	if err != nil {
		return nil, false, err
	}
	xs := []Expr{first}
	tuple := false
	for p.match(COMMA) {
		tuple = true
		if !startsExpr(p.peek().Type) {
			break
		}
		x, err := p.test()
		if err != nil {
			return nil, false, err
		}
		xs = append(xs, x)
	}
	return xs, tuple, nil
}

func (p *parser) test() (Expr, error) {
	x, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.match(IF) {
		return x, nil
	}
	cond, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "'else'"); err != nil {
		return nil, err
	}
	other, err := p.test()
	if err != nil {
		return nil, err
	}
	return &IfExpr{Cond: cond, Then: x, Else: other}, nil
}

func (p *parser) orTest() (Expr, error) {
	x, err := p.andTest()
	if err != nil {
		return nil, err
	}
	for p.match(OR) {
		r, err := p.andTest()
		if err != nil {
			return nil, err
		}
		x = &BoolOp{Op: "or", L: x, R: r}
	}
	return x, nil
}

func (p *parser) andTest() (Expr, error) {
	x, err := p.notTest()
	if err != nil {
		return nil, err
	}
	for p.match(AND) {
		r, err := p.notTest()
		if err != nil {
			return nil, err
		}
		x = &BoolOp{Op: "and", L: x, R: r}
	}
	return x, nil
}

func (p *parser) notTest() (Expr, error) {
	if p.match(NOT) {
		x, err := p.notTest()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (Expr, error) {
	first, err := p.arith()
	if err != nil {
		return nil, err
	}
	cmp := &Compare{First: first}
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		r, err := p.arith()
		if err != nil {
			return nil, err
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Rest = append(cmp.Rest, r)
	}
	if len(cmp.Ops) == 0 {
		return first, nil
	}
	return cmp, nil
}

func (p *parser) compareOp() (string, bool) {
	tok := p.peek()
	if op, ok := compareOps[tok.Type]; ok {
		p.advance()
		return op, true
	}
	switch tok.Type {
	case IN:
		p.advance()
		return "in", true
	case NOT:
		if p.peekAt(1).Type == IN {
			p.advance()
			p.advance()
			return "not in", true
		}
	case IS:
		p.advance()
		if p.match(NOT) {
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *parser) arith() (Expr, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.check(PLUS) || p.check(MINUS) {
		op := p.advance().Lexeme
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, L: x, R: r}
	}
	return x, nil
}

func (p *parser) term() (Expr, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.check(STAR) || p.check(SLASH) || p.check(DSLASH) || p.check(PERCENT) {
		op := p.advance().Lexeme
		r, err := p.factor()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, L: x, R: r}
	}
	return x, nil
}

func (p *parser) factor() (Expr, error) {
	if p.check(MINUS) || p.check(PLUS) {
		op := p.advance().Lexeme
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	x, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if !p.match(POWER) {
		return x, nil
	}
	r, err := p.factor()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: "**", L: x, R: r}, nil
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case LPAREN:
			x, err = p.callArgs(x)
		case LBRACKET:
			x, err = p.subscript(x)
		case DOT:
			p.advance()
			var name Token
			name, err = p.expect(NAME, "attribute name")
			if err == nil {
				x = &Attr{X: x, Name: name.Lexeme}
			}
		default:
			return x, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) callArgs(fn Expr) (Expr, error) {
	p.advance()
	call := &Call{Func: fn}
	for !p.check(RPAREN) {
		if p.check(NAME) && p.peekAt(1).Type == ASSIGN {
			name := p.advance().Lexeme
			p.advance()
			v, err := p.test()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, Keyword{Name: name, Value: v})
		} else {
			if len(call.Keywords) > 0 {
				return nil, p.errorf("positional argument follows keyword argument")
			}
			v, err := p.test()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) subscript(x Expr) (Expr, error) {
	p.advance()
	var low, high, step Expr
	var err error
	if !p.check(COLON) {
		if low, err = p.test(); err != nil {
			return nil, err
		}
	}
	if !p.match(COLON) {
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return &Index{X: x, Index: low}, nil
	}
	if !p.check(COLON) && !p.check(RBRACKET) {
		if high, err = p.test(); err != nil {
			return nil, err
		}
	}
	if p.match(COLON) && !p.check(RBRACKET) {
		if step, err = p.test(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &Slice{X: x, Low: low, High: high, Step: step}, nil
}

func (p *parser) atom() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NAME:
		p.advance()
		return &Name{Name: tok.Lexeme}, nil
	case INT:
		p.advance()
		v, err := strconv.ParseInt(strings.ReplaceAll(tok.Lexeme, "_", ""), 10, 64)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: "integer literal out of range"}
		}
		return &IntLit{Value: v}, nil
	case FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Lexeme, "_", ""), 64)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: "invalid float literal"}
		}
		return &FloatLit{Value: v}, nil
	case STRING:
		var b strings.Builder
		for p.check(STRING) {
			b.WriteString(p.advance().Literal)
		}
		return &StrLit{Value: b.String()}, nil
	case FSTRING:
		p.advance()
		fs, err := parseFString(tok.Literal)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
		return fs, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{Value: tok.Type == TRUE}, nil
	case NONE:
		p.advance()
		return &NoneLit{}, nil
	case LPAREN:
		p.advance()
		if p.match(RPAREN) {
			return &TupleLit{}, nil
		}
		xs, tuple, err := p.exprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		if tuple {
			return &TupleLit{Elems: xs}, nil
		}
		return &Paren{X: xs[0]}, nil
	case LBRACKET:
		p.advance()
		list := &ListLit{}
		for !p.check(RBRACKET) {
			x, err := p.test()
			if err != nil {
				return nil, err
			}
			list.Elems = append(list.Elems, x)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return list, nil
	}
	if tok.Type == EOF || tok.Type == NEWLINE {
		return nil, p.errorf("unexpected end of line")
	}
	return nil, p.errorf("unexpected %q", tok.Lexeme)
}

// parseFString splits decoded f-string text into literal and `{expr[:spec]}` parts.
func parseFString(s string) (*FString, error) {
	fs := &FString{}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			fs.Parts = append(fs.Parts, FStringPart{Text: text.String()})
			text.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '{' && i+1 < len(s) && s[i+1] == '{':
			text.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(s) && s[i+1] == '}':
			text.WriteByte('}')
			i++
		case ch == '{':
			end, colon := fieldEnd(s, i+1)
			if end < 0 {
				return nil, fmt.Errorf("unterminated f-string field")
			}
			src, spec := s[i+1:end], ""
			if colon >= 0 {
				src, spec = s[i+1:colon], s[colon+1:end]
			}
			src = strings.TrimSpace(src)
			for _, conv := range []string{"!r", "!s", "!a"} {
				src = strings.TrimSuffix(src, conv)
			}
			x, err := ParseExpr(src)
			if err != nil {
				return nil, err
			}
			flush()
			fs.Parts = append(fs.Parts, FStringPart{Expr: x, Spec: spec})
			i = end
		default:
			text.WriteByte(ch)
		}
	}
	flush()
	return fs, nil
}

// fieldEnd finds the '}' closing an f-string field starting at from, and the
// first top-level ':' before it (-1 when absent).
func fieldEnd(s string, from int) (end, colon int) {
	depth := 0
	colon = -1
	var quote byte
	for j := from; j < len(s); j++ {
		c := s[j]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return j, colon
			}
			depth--
		case ':':
			if depth == 0 && colon < 0 {
				colon = j
			}
		}
	}
	return -1, -1
}
