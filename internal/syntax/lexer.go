package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const tabWidth = 8

// Lexer scans program text into tokens.
type Lexer struct {
	src     string
	start   int
	cur     int
	line    int
	col     int
	depth   int // open (, [ and {
	indents []int
	tokens  []Token

	tokLine int
	tokCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:     strings.ReplaceAll(src, "\r\n", "\n"),
		line:    1,
		col:     1,
		indents: []int{0},
	}
}

// Tokenize is a convenience wrapper around NewLexer(src).Scan().
func Tokenize(src string) []Token {
	return NewLexer(src).Scan()
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) begin() {
	l.start = l.cur
	l.tokLine = l.line
	l.tokCol = l.col
}

func (l *Lexer) emit(tt TokenType, literal string) {
	l.tokens = append(l.tokens, Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: literal,
		Line:    l.tokLine,
		Col:     l.tokCol,
	})
}

func (l *Lexer) emitSynthetic(tt TokenType) {
	l.tokens = append(l.tokens, Token{Type: tt, Line: l.line, Col: l.col})
}

func (l *Lexer) lastType() TokenType {
	if len(l.tokens) == 0 {
		return NEWLINE
	}
	return l.tokens[len(l.tokens)-1].Type
}

// Scan tokenizes the whole source. Problems never abort scanning; they
// surface as ILLEGAL tokens for the parser to recover from.
func (l *Lexer) Scan() []Token {
	atLineStart := true
	for !l.isAtEnd() {
		if atLineStart && l.depth == 0 {
			if !l.indentation() {
				continue
			}
			atLineStart = false
		}
		ch := l.peek()
		switch {
		case ch == '\n':
			l.begin()
			l.advance()
			if l.depth == 0 {
				if l.lastType() != NEWLINE {
					l.emit(NEWLINE, "")
				}
				atLineStart = true
			}
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f':
			l.advance()
		case ch == '#':
			l.skipComment()
		case ch == '\\' && l.peekN(1) == '\n':
			l.advance()
			l.advance()
		default:
			l.scanToken()
		}
	}
	if l.lastType() != NEWLINE {
		l.emitSynthetic(NEWLINE)
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emitSynthetic(DEDENT)
	}
	l.emitSynthetic(EOF)
	return l.tokens
}

// indentation measures the leading whitespace of a logical line and emits
// INDENT/DEDENT tokens. It returns false for blank and comment-only lines,
// which it consumes entirely.
func (l *Lexer) indentation() bool {
	width := 0
measure:
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ':
			width++
		case '\t':
			width = (width/tabWidth + 1) * tabWidth
		case '\f', '\r':
		default:
			break measure
		}
		l.advance()
	}
	if l.isAtEnd() {
		return false
	}
	switch l.peek() {
	case '\n':
		l.advance()
		return false
	case '#':
		l.skipComment()
		if !l.isAtEnd() {
			l.advance()
		}
		return false
	}

	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emitSynthetic(INDENT)
	case width < top:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.emitSynthetic(DEDENT)
		}
	}
	return true
}

func (l *Lexer) skipComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) scanToken() {
	l.begin()
	ch := l.peek()

	if isStringStart(l.src[l.cur:]) {
		l.scanString()
		return
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))) {
		l.scanNumber()
		return
	}
	if r, _ := utf8.DecodeRuneInString(l.src[l.cur:]); r == '_' || unicode.IsLetter(r) {
		l.scanName()
		return
	}

	l.advance()
	switch ch {
	case '(':
		l.depth++
		l.emit(LPAREN, "")
	case ')':
		l.closeBracket()
		l.emit(RPAREN, "")
	case '[':
		l.depth++
		l.emit(LBRACKET, "")
	case ']':
		l.closeBracket()
		l.emit(RBRACKET, "")
	case '{':
		l.depth++
		l.emit(LBRACE, "")
	case '}':
		l.closeBracket()
		l.emit(RBRACE, "")
	case ',':
		l.emit(COMMA, "")
	case ':':
		l.emit(COLON, "")
	case ';':
		l.emit(SEMICOLON, "")
	case '.':
		l.emit(DOT, "")
	case '+':
		l.withAssign(PLUS, PLUS_ASSIGN)
	case '-':
		l.withAssign(MINUS, MINUS_ASSIGN)
	case '%':
		l.withAssign(PERCENT, PERCENT_ASSIGN)
	case '*':
		if l.peek() == '*' {
			l.advance()
			l.emit(POWER, "")
			return
		}
		l.withAssign(STAR, STAR_ASSIGN)
	case '/':
		if l.peek() == '/' {
			l.advance()
			l.withAssign(DSLASH, DSLASH_ASSIGN)
			return
		}
		l.withAssign(SLASH, SLASH_ASSIGN)
	case '=':
		l.withAssign(ASSIGN, EQ)
	case '<':
		l.withAssign(LT, LE)
	case '>':
		l.withAssign(GT, GE)
	case '!':
		if l.peek() == '=' {
			l.advance()
			l.emit(NEQ, "")
			return
		}
		l.emit(ILLEGAL, "")
	default:
		l.emit(ILLEGAL, "")
	}
}

// withAssign emits withEq when the operator is followed by '='.
func (l *Lexer) withAssign(plain, withEq TokenType) {
	if l.peek() == '=' {
		l.advance()
		l.emit(withEq, "")
		return
	}
	l.emit(plain, "")
}

func (l *Lexer) closeBracket() {
	if l.depth > 0 {
		l.depth--
	}
}

func (l *Lexer) scanName() {
	for !l.isAtEnd() {
		r, size := utf8.DecodeRuneInString(l.src[l.cur:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		for range size {
			l.advance()
		}
	}
	word := l.src[l.start:l.cur]
	if tt, ok := keywords[word]; ok {
		l.emit(tt, "")
		return
	}
	l.emit(NAME, "")
}

func (l *Lexer) scanNumber() {
	isFloat := false
	digits := func() {
		for isDigit(l.peek()) || (l.peek() == '_' && isDigit(l.peekN(1))) {
			l.advance()
		}
	}
	digits()
	if l.peek() == '.' && !isAlpha(l.peekN(1)) {
		isFloat = true
		l.advance()
		digits()
	}
	if e := l.peek(); e == 'e' || e == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			isFloat = true
			l.advance()
			if next == '+' || next == '-' {
				l.advance()
			}
			digits()
		}
	}
	if isFloat {
		l.emit(FLOAT, "")
		return
	}
	l.emit(INT, "")
}

// isStringStart reports whether s begins with a (possibly prefixed) string
// literal: '...', "...", `...`, f"...", r'...', fr"..." and so on.
func isStringStart(s string) bool {
	i := 0
	for i < len(s) && i < 2 && strings.ContainsRune("fFrRbBuU", rune(s[i])) {
		i++
	}
	return i < len(s) && (s[i] == '\'' || s[i] == '"' || s[i] == '`')
}

func (l *Lexer) scanString() {
	format, raw := false, false
prefix:
	for {
		switch l.peek() {
		case 'f', 'F':
			format = true
		case 'r', 'R':
			raw = true
		case 'b', 'B', 'u', 'U':
		default:
			break prefix
		}
		l.advance()
	}
	quote := l.advance()
	triple := false
	if quote != '`' && l.peek() == quote && l.peekN(1) == quote {
		triple = true
		l.advance()
		l.advance()
	}

	var b strings.Builder
body:
	for {
		if l.isAtEnd() {
			l.emit(ILLEGAL, "")
			return
		}
		ch := l.peek()
		if ch == quote {
			if !triple {
				l.advance()
				break body
			}
			if l.peekN(1) == quote && l.peekN(2) == quote {
				l.advance()
				l.advance()
				l.advance()
				break body
			}
		}
		if ch == '\n' && !triple {
			l.emit(ILLEGAL, "")
			return
		}
		if ch == '\\' && !raw && l.cur+1 < len(l.src) {
			l.advance()
			b.WriteString(unescape(l.advance()))
			continue
		}
		b.WriteByte(l.advance())
	}

	if format {
		l.emit(FSTRING, b.String())
		return
	}
	l.emit(STRING, b.String())
}

func unescape(ch byte) string {
	switch ch {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case '\\', '\'', '"', '`':
		return string(ch)
	case '\n':
		return ""
	default:
		return "\\" + string(ch)
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
