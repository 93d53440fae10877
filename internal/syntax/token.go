// Package syntax turns program text into a statement tree.
//
// The lexer follows the usual indentation rules: leading whitespace opens and
// closes blocks through INDENT and DEDENT tokens, and newlines inside brackets
// are ignored. The parser is recursive descent and never fails outright: any
// statement it cannot understand becomes an Unsupported node so the caller
// can skip it.
package syntax

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL
	NEWLINE
	INDENT
	DEDENT

	// Literals & identifiers
	NAME
	INT
	FLOAT
	STRING
	FSTRING

	// Punctuation
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	COLON
	SEMICOLON
	DOT

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	DSLASH
	PERCENT
	POWER
	EQ
	NEQ
	LT
	LE
	GT
	GE

	// Assignment
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	DSLASH_ASSIGN
	PERCENT_ASSIGN

	// Keywords
	DEF
	RETURN
	IF
	ELIF
	ELSE
	FOR
	IN
	WHILE
	AND
	OR
	NOT
	IS
	TRUE
	FALSE
	NONE
	PASS
	BREAK
	CONTINUE
	GLOBAL

	// RESERVED marks keywords of the full language that are not supported
	// here (class, try, import, ...). Statements starting with one are skipped.
	RESERVED
)

var tokenNames = map[TokenType]string{
	EOF: "EOF", ILLEGAL: "ILLEGAL", NEWLINE: "NEWLINE", INDENT: "INDENT", DEDENT: "DEDENT",
	NAME: "NAME", INT: "INT", FLOAT: "FLOAT", STRING: "STRING", FSTRING: "FSTRING",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", COLON: ":", SEMICOLON: ";", DOT: ".",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", DSLASH: "//", PERCENT: "%", POWER: "**",
	EQ: "==", NEQ: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=",
	SLASH_ASSIGN: "/=", DSLASH_ASSIGN: "//=", PERCENT_ASSIGN: "%=",
	DEF: "def", RETURN: "return", IF: "if", ELIF: "elif", ELSE: "else", FOR: "for",
	IN: "in", WHILE: "while", AND: "and", OR: "or", NOT: "not", IS: "is",
	TRUE: "True", FALSE: "False", NONE: "None", PASS: "pass", BREAK: "break",
	CONTINUE: "continue", GLOBAL: "global", RESERVED: "RESERVED",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexical token. Literal holds the decoded text of string tokens.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal string
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"def":      DEF,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"for":      FOR,
	"in":       IN,
	"while":    WHILE,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"is":       IS,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONE,
	"pass":     PASS,
	"break":    BREAK,
	"continue": CONTINUE,
	"global":   GLOBAL,

	"class":    RESERVED,
	"try":      RESERVED,
	"except":   RESERVED,
	"finally":  RESERVED,
	"raise":    RESERVED,
	"import":   RESERVED,
	"from":     RESERVED,
	"with":     RESERVED,
	"as":       RESERVED,
	"lambda":   RESERVED,
	"yield":    RESERVED,
	"del":      RESERVED,
	"assert":   RESERVED,
	"async":    RESERVED,
	"await":    RESERVED,
	"nonlocal": RESERVED,
}
