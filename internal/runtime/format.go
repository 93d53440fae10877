package runtime

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Display renders v the way print and str() do: strings bare, everything
// else as Repr.
func Display(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Repr(v)
}

// Repr renders v as a source-like literal: quoted strings, [1, 2, 3] lists,
// True/False/None.
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v, nil)
	return b.String()
}

func writeRepr(b *strings.Builder, v Value, seen map[*List]bool) {
	switch v := v.(type) {
	case nil, NoneValue:
		b.WriteString("None")
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		b.WriteString(FormatFloat(float64(v)))
	case Bool:
		if v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case Str:
		b.WriteString(QuoteStr(string(v)))
	case *List:
		if seen[v] {
			b.WriteString("[...]")
			return
		}
		if seen == nil {
			seen = make(map[*List]bool)
		}
		seen[v] = true
		b.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, e, seen)
		}
		b.WriteByte(']')
		delete(seen, v)
	}
}

// FormatFloat renders a float with the shortest round-tripping digits and
// always a decimal point or exponent, e.g. 2.0, 0.1, 1e+16.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// QuoteStr quotes s with single quotes unless it contains only double-quote
// conflicts.
func QuoteStr(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r == rune(q) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

type formatSpec struct {
	fill      rune
	align     byte
	plus      bool
	zero      bool
	width     int
	comma     bool
	precision int
	verb      byte
}

func parseSpec(spec string) formatSpec {
	fs := formatSpec{fill: ' ', precision: -1}
	isAlign := func(c byte) bool { return c == '<' || c == '>' || c == '^' || c == '=' }
	i := 0
	if r, size := utf8.DecodeRuneInString(spec); size > 0 && size < len(spec) && isAlign(spec[size]) {
		fs.fill, fs.align = r, spec[size]
		i = size + 1
	} else if len(spec) > 0 && isAlign(spec[0]) {
		fs.align = spec[0]
		i = 1
	}
	if i < len(spec) && (spec[i] == '+' || spec[i] == '-' || spec[i] == ' ') {
		fs.plus = spec[i] == '+'
		i++
	}
	if i < len(spec) && spec[i] == '0' {
		fs.zero = true
		i++
	}
	start := i
	for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
		i++
	}
	fs.width, _ = strconv.Atoi(spec[start:i])
	if i < len(spec) && (spec[i] == ',' || spec[i] == '_') {
		fs.comma = true
		i++
	}
	if i < len(spec) && spec[i] == '.' {
		i++
		start = i
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			i++
		}
		fs.precision, _ = strconv.Atoi(spec[start:i])
	}
	if i < len(spec) {
		fs.verb = spec[i]
	}
	return fs
}

// FormatSpec applies an f-string format spec such as ".2f", ">5", "05d" or
// ",". Specs that do not fit the value fall back to Display.
func FormatSpec(v Value, spec string) string {
	if spec == "" {
		return Display(v)
	}
	fs := parseSpec(spec)
	numeric := IsNumber(v)
	var body string
	switch fs.verb {
	case 'f', 'F', 'e', 'E', '%':
		f, ok := ToFloat(v)
		if !ok {
			return Display(v)
		}
		prec := fs.precision
		if prec < 0 {
			prec = 6
		}
		switch fs.verb {
		case 'e', 'E':
			body = strconv.FormatFloat(f, fs.verb, prec, 64)
		case '%':
			body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
		default:
			body = strconv.FormatFloat(f, 'f', prec, 64)
		}
	case 'd':
		n, ok := v.(Int)
		if !ok {
			return Display(v)
		}
		body = strconv.FormatInt(int64(n), 10)
	case 'g', 'G':
		f, ok := ToFloat(v)
		if !ok {
			return Display(v)
		}
		body = strconv.FormatFloat(f, fs.verb, fs.precision, 64)
	default:
		body = Display(v)
		if fs.precision >= 0 {
			if f, ok := v.(Float); ok {
				body = strconv.FormatFloat(float64(f), 'g', fs.precision, 64)
			} else if s, ok := v.(Str); ok && utf8.RuneCountInString(string(s)) > fs.precision {
				body = string([]rune(string(s))[:fs.precision])
			}
		}
	}

	sign := ""
	if numeric {
		if strings.HasPrefix(body, "-") {
			sign, body = "-", body[1:]
		} else if fs.plus {
			sign = "+"
		}
		if fs.comma {
			body = groupThousands(body)
		}
	}

	pad := fs.width - utf8.RuneCountInString(sign+body)
	if pad <= 0 {
		return sign + body
	}
	align, fill := fs.align, fs.fill
	if align == 0 {
		switch {
		case fs.zero && numeric:
			align, fill = '=', '0'
		case numeric:
			align = '>'
		default:
			align = '<'
		}
	}
	padding := strings.Repeat(string(fill), pad)
	switch align {
	case '<':
		return sign + body + padding
	case '^':
		left := strings.Repeat(string(fill), pad/2)
		return left + sign + body + strings.Repeat(string(fill), pad-pad/2)
	case '=':
		return sign + padding + body
	default:
		return padding + sign + body
	}
}

func groupThousands(s string) string {
	intPart, rest := s, ""
	if i := strings.IndexAny(s, ".e%"); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + rest
}
