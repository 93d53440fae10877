package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Stmt {
	t.Helper()
	mod := Parse(src)
	require.Len(t, mod.Body, 1)
	return mod.Body[0]
}

func TestParseExprPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"2 + 3 * 4", "2 + 3 * 4"},
		{"(2 + 3) * 4", "(2 + 3) * 4"},
		{"-x ** 2", "-x ** 2"},
		{"a or b and not c", "a or b and not c"},
		{"1 < x <= 10", "1 < x <= 10"},
		{"x not in xs", "x not in xs"},
		{"y is not None", "y is not None"},
		{"a if c else b", "a if c else b"},
		{"arr[j] > arr[j + 1]", "arr[j] > arr[j + 1]"},
		{"xs[1:3]", "xs[1:3]"},
		{"xs[::-1]", "xs[::-1]"},
		{"s.upper()", "s.upper()"},
		{"print(a, b, sep='-')", "print(a, b, sep='-')"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			x, err := ParseExpr(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, x.String())
		})
	}
}

func TestParseExprShapes(t *testing.T) {
	x, err := ParseExpr("2 + 3 * 4")
	require.NoError(t, err)
	bin, ok := x.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	assert.IsType(t, &Binary{}, bin.R)

	x, err = ParseExpr("2 ** 3 ** 2")
	require.NoError(t, err)
	pow := x.(*Binary)
	assert.IsType(t, &IntLit{}, pow.L)
	assert.IsType(t, &Binary{}, pow.R, "** is right associative")

	x, err = ParseExpr("10 - 3 - 2")
	require.NoError(t, err)
	sub := x.(*Binary)
	assert.IsType(t, &Binary{}, sub.L, "- is left associative")
	assert.IsType(t, &IntLit{}, sub.R)
}

func TestParseExprErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "[x for x in y]", "f(a=1, 2)", "a b"} {
		_, err := ParseExpr(src)
		assert.Error(t, err, src)
	}
}

func TestParseFString(t *testing.T) {
	x, err := ParseExpr(`f"total={a + b:.2f} {{ok}}"`)
	require.NoError(t, err)
	fs, ok := x.(*FString)
	require.True(t, ok)
	require.Len(t, fs.Parts, 3)
	assert.Equal(t, "total=", fs.Parts[0].Text)
	assert.Equal(t, "a + b", fs.Parts[1].Expr.String())
	assert.Equal(t, ".2f", fs.Parts[1].Spec)
	assert.Equal(t, " {ok}", fs.Parts[2].Text)
}

func TestParseAssignments(t *testing.T) {
	assign := parseOne(t, "x = 1").(*Assign)
	assert.Equal(t, 1, assign.LineNo())
	require.Len(t, assign.Targets, 1)
	assert.Equal(t, "x", assign.Targets[0].String())

	swap := parseOne(t, "a[i], a[j] = a[j], a[i]").(*Assign)
	require.Len(t, swap.Targets, 2)
	require.Len(t, swap.Values, 2)
	assert.Equal(t, "a[j]", swap.Values[0].String())

	packed := parseOne(t, "t = 1, 2").(*Assign)
	require.Len(t, packed.Values, 1)
	assert.IsType(t, &TupleLit{}, packed.Values[0])

	aug := parseOne(t, "arr[i] //= 2").(*AugAssign)
	assert.Equal(t, "//", aug.Op)
	assert.Equal(t, "arr[i]", aug.Target.String())
}

func TestParseCompoundStatements(t *testing.T) {
	src := `def bubble(arr, n=0):
    for i in range(len(arr)):
        if arr[i] > 1:
            pass
        elif arr[i] == 0:
            continue
        else:
            break
    while n < 3:
        n += 1
    return arr
`
	fn := parseOne(t, src).(*FuncDef)
	assert.Equal(t, "bubble", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Nil(t, fn.Params[0].Default)
	assert.Equal(t, "0", fn.Params[1].Default.String())
	require.Len(t, fn.Body, 3)

	loop := fn.Body[0].(*For)
	assert.Equal(t, "i", loop.Var)
	assert.Equal(t, "range(len(arr))", loop.Iter.String())
	assert.Equal(t, 2, loop.LineNo())

	cond := loop.Body[0].(*If)
	require.Len(t, cond.Branches, 2)
	assert.Equal(t, 5, cond.Branches[1].LineNo())
	require.Len(t, cond.Else, 1)
	assert.IsType(t, &Break{}, cond.Else[0])

	assert.IsType(t, &While{}, fn.Body[1])
	ret := fn.Body[2].(*Return)
	assert.Equal(t, "arr", ret.Value.String())
}

func TestParseInlineSuiteAndSemicolons(t *testing.T) {
	mod := Parse("while True: pass\nx = 1; y = 2\n")
	require.Len(t, mod.Body, 3)
	w := mod.Body[0].(*While)
	require.Len(t, w.Body, 1)
	assert.IsType(t, &Pass{}, w.Body[0])
	assert.IsType(t, &Assign{}, mod.Body[1])
	assert.IsType(t, &Assign{}, mod.Body[2])
	assert.Equal(t, 2, mod.Body[2].LineNo())
}

func TestParseUnsupportedRecovery(t *testing.T) {
	src := `x = 1
class Foo:
    def m(self):
        pass
y = $
try:
    z = 1
except Exception:
    z = 2
print(x)
`
	mod := Parse(src)
	var kinds []string
	for _, s := range mod.Body {
		switch s := s.(type) {
		case *Unsupported:
			kinds = append(kinds, "unsupported:"+s.Text)
		case *Assign:
			kinds = append(kinds, "assign")
		case *ExprStmt:
			kinds = append(kinds, "expr")
		}
	}
	assert.Equal(t, []string{
		"assign",
		"unsupported:class Foo:",
		"unsupported:y = $",
		"unsupported:try:",
		"unsupported:except Exception:",
		"expr",
	}, kinds)
}

func TestParseUnexpectedIndent(t *testing.T) {
	mod := Parse("x = 1\n    y = 2\nz = 3\n")
	require.Len(t, mod.Body, 3)
	assert.IsType(t, &Unsupported{}, mod.Body[1])
	assert.IsType(t, &Assign{}, mod.Body[2])
}

func TestParseGlobal(t *testing.T) {
	fn := parseOne(t, "def f():\n    global count, total\n    count += 1\n").(*FuncDef)
	g := fn.Body[0].(*Global)
	assert.Equal(t, []string{"count", "total"}, g.Names)
}

func TestParseChainedAssignmentUnsupported(t *testing.T) {
	assert.IsType(t, &Unsupported{}, parseOne(t, "a = b = 0"))
}
