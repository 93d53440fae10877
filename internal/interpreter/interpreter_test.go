package interpreter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/steptrace/internal/trace"
)

const bubbleSort = `arr = [5, 3, 8, 1, 2]
n = len(arr)
for i in range(n):
    for j in range(0, n - i - 1):
        if arr[j] > arr[j + 1]:
            arr[j], arr[j + 1] = arr[j + 1], arr[j]
print(arr)
`

const fibonacci = `def fibonacci(n):
    if n <= 1:
        return n
    return fibonacci(n - 1) + fibonacci(n - 2)

print(fibonacci(5))
`

func lastStep(t *testing.T, r Result) trace.Step {
	t.Helper()
	require.NotEmpty(t, r.Steps)
	return r.Steps[len(r.Steps)-1]
}

func varValue(t *testing.T, s trace.Step, name string) string {
	t.Helper()
	v, ok := s.Variable(name)
	require.True(t, ok, "variable %q missing at line %d", name, s.Line)
	return v.Value
}

func TestScenarioBubbleSort(t *testing.T) {
	r := Interpret(bubbleSort, nil)

	require.False(t, r.AwaitingInput)
	require.False(t, r.Truncated)
	assert.Equal(t, "[1, 2, 3, 5, 8]", varValue(t, lastStep(t, r), "arr"))
	assert.Equal(t, []string{"[1, 2, 3, 5, 8]"}, r.Output)

	var compares, swaps int
	for _, s := range r.Steps {
		for _, h := range s.Highlights() {
			switch h.Color {
			case trace.ColorCompare:
				compares++
			case trace.ColorSwap:
				swaps++
			}
		}
	}
	assert.Equal(t, 20, compares, "two compare highlights per inner iteration")
	assert.Positive(t, swaps)
	assert.Zero(t, swaps%2, "swaps highlight both indexes")
}

func TestBubbleSortFirstComparisonHighlights(t *testing.T) {
	r := Interpret(bubbleSort, nil)
	var first *trace.Step
	for i := range r.Steps {
		if r.Steps[i].Line == 5 {
			first = &r.Steps[i]
			break
		}
	}
	require.NotNil(t, first)
	assert.Equal(t, "Check arr[j] > arr[j + 1]: True", first.Annotation)

	c, ok := first.Container("arr")
	require.True(t, ok)
	require.Len(t, c.Highlights, 2)
	assert.Equal(t, trace.Highlight{Container: "arr", Index: 0, Color: trace.ColorCompare, Label: "arr[j]"}, c.Highlights[0])
	assert.Equal(t, trace.Highlight{Container: "arr", Index: 1, Color: trace.ColorCompare, Label: "arr[j + 1]"}, c.Highlights[1])
}

func TestScenarioSubscriptWrites(t *testing.T) {
	src := "arr = [0, 0, 0]\nfor i in range(3):\n    arr[i] = i * i\n"
	r := Interpret(src, nil)

	assert.Equal(t, "[0, 1, 4]", varValue(t, lastStep(t, r), "arr"))

	var indexes []int
	for _, s := range r.Steps {
		for _, h := range s.Highlights() {
			if h.Color == trace.ColorWrite {
				assert.Equal(t, 3, s.Line)
				indexes = append(indexes, h.Index)
			}
		}
	}
	assert.Equal(t, []int{0, 1, 2}, indexes)
}

func TestScenarioRecursiveFibonacci(t *testing.T) {
	r := Interpret(fibonacci, nil)

	maxDepth := 0
	for _, s := range r.Steps {
		maxDepth = max(maxDepth, len(s.CallStack))
	}
	assert.GreaterOrEqual(t, maxDepth, 5)
	require.NotEmpty(t, r.Output)
	assert.Equal(t, "5", r.Output[len(r.Output)-1])

	final := lastStep(t, r)
	assert.Empty(t, final.CallStack)
	assert.Equal(t, 6, final.Line)
}

func TestCallStackNamesInnermostLast(t *testing.T) {
	src := `def inner():
    pass

def outer():
    inner()

outer()
`
	r := Interpret(src, nil)
	require.NotEmpty(t, r.Steps)
	assert.Equal(t, []string{"outer", "inner"}, r.Steps[0].CallStack)
	assert.Equal(t, 2, r.Steps[0].Line)
}

func TestDeterminism(t *testing.T) {
	for _, src := range []string{bubbleSort, fibonacci} {
		a := Interpret(src, nil)
		b := Interpret(src, nil)
		aj, err := json.Marshal(a)
		require.NoError(t, err)
		bj, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, string(aj), string(bj))
	}
}

func TestListAliasingThroughParameter(t *testing.T) {
	src := `def f(a):
    a[0] = 9

lst = [1, 2]
f(lst)
`
	r := Interpret(src, nil)
	assert.Equal(t, "[9, 2]", varValue(t, lastStep(t, r), "lst"))
}

func TestListAliasingThroughComputedArgument(t *testing.T) {
	src := `def same(x):
    return x

def f(a):
    a.append(3)

lst = [1, 2]
f(same(lst))
copy = lst[:]
f(copy)
`
	r := Interpret(src, nil)
	final := lastStep(t, r)
	assert.Equal(t, "[1, 2, 3]", varValue(t, final, "lst"))
	assert.Equal(t, "[1, 2, 3, 3]", varValue(t, final, "copy"))
}

func TestAliasedContainersShareOneLabel(t *testing.T) {
	r := Interpret("a = [1]\nb = a\nx = 0\n", nil)
	require.Len(t, r.Steps, 3)
	require.Len(t, r.Steps[1].Containers, 1)
	c := r.Steps[1].Containers[0]
	assert.Equal(t, "a = b", c.Name)
	assert.Equal(t, []string{"a", "b"}, c.Names)
	assert.Equal(t, []string{"1"}, c.Elements)
}

func TestArithmeticAndPrecedence(t *testing.T) {
	src := `a = 2 + 3 * 4
b = (2 + 3) * 4
c = 10 // 3
d = 7 % 2
e = 7 / 2
f = 4 / 2
g = -7 // 2
h = -7 % 3
z = 5 / 0
m = 5 % 0
p = 2 ** 3 ** 2
q = 1 + 2.5
s = "ab" * 2 + "c"
l = [1] * 3
`
	final := lastStep(t, Interpret(src, nil))
	want := map[string]string{
		"a": "14", "b": "20", "c": "3", "d": "1",
		"e": "3.5", "f": "2.0", "g": "-4", "h": "2",
		"z": "0", "m": "0", "p": "512", "q": "3.5",
		"s": "'ababc'", "l": "[1, 1, 1]",
	}
	for name, value := range want {
		assert.Equal(t, value, varValue(t, final, name), name)
	}
	v, _ := final.Variable("e")
	assert.Equal(t, "float", v.Type)
}

func TestShortCircuitHasNoSideEffects(t *testing.T) {
	src := `def x():
    print("side effect")
    return True

r = False and x()
s = True or x()
`
	r := Interpret(src, nil)
	assert.Len(t, r.Steps, 2)
	assert.Empty(t, r.Output)
	for _, s := range r.Steps {
		assert.Empty(t, s.CallStack)
	}
	assert.Equal(t, "False", varValue(t, r.Steps[1], "r"))
	assert.Equal(t, "True", varValue(t, r.Steps[1], "s"))
}

func TestStepCeiling(t *testing.T) {
	r := Interpret("while True:\n    pass\n", nil)
	assert.Len(t, r.Steps, 500)
	assert.True(t, r.Truncated)
	assert.False(t, r.AwaitingInput)

	opts := DefaultOptions()
	opts.MaxSteps = 25
	r = Run("x = 0\nwhile True:\n    x += 1\n", nil, opts)
	assert.Len(t, r.Steps, 25)
	assert.True(t, r.Truncated)
}

func TestProgramEndingAtCeilingIsNotTruncated(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSteps = 3
	r := Run("a = 1\nb = 2\nc = 3\n", nil, opts)
	assert.Len(t, r.Steps, 3)
	assert.False(t, r.Truncated)
}

func TestWhileIterationCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLoopIterations = 3
	r := Run("while True:\n    pass\n", nil, opts)
	assert.Len(t, r.Steps, 6)
	assert.False(t, r.Truncated)
}

func TestRecursionGuard(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCallDepth = 10
	r := Run("def f(n):\n    return f(n + 1)\n\nf(0)\n", nil, opts)
	assert.False(t, r.Truncated)
	assert.Len(t, r.Steps, 11)
	maxDepth := 0
	for _, s := range r.Steps {
		maxDepth = max(maxDepth, len(s.CallStack))
	}
	assert.Equal(t, 10, maxDepth)
}

func TestInputSuspension(t *testing.T) {
	src := "name = input(\"Name? \")\nprint(\"Hello \" + name)\n"

	r := Interpret(src, nil)
	assert.True(t, r.AwaitingInput)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, 1, r.Steps[0].Line)
	assert.Equal(t, "Waiting for input", r.Steps[0].Annotation)
	assert.Equal(t, []string{"Name? "}, r.Output)
	assert.Equal(t, "Name? ", r.InputPrompt)

	r = Interpret(src, []string{"Ada"})
	assert.False(t, r.AwaitingInput)
	require.Len(t, r.Steps, 2)
	assert.Equal(t, []string{"Name? Ada", "Hello Ada"}, r.Output)
	assert.Equal(t, "'Ada'", varValue(t, r.Steps[0], "name"))
	assert.Empty(t, r.InputPrompt)
}

func TestInputWithoutPromptAfterOutput(t *testing.T) {
	r := Interpret("print('hi')\nx = input()\n", nil)
	assert.True(t, r.AwaitingInput)
	assert.Equal(t, []string{"hi"}, r.Output)
	assert.Empty(t, r.InputPrompt)
}

func TestReplayPrefixConsistency(t *testing.T) {
	src := `print("start")
x = int(input("x: "))
print(x * 2)
y = input()
`
	short := Interpret(src, nil)
	require.True(t, short.AwaitingInput)
	wait := lastStep(t, short)
	assert.Equal(t, 2, wait.Line)

	longer := Interpret(src, []string{"5"})
	require.True(t, longer.AwaitingInput, "the second input() suspends again")
	require.Greater(t, len(longer.Steps), len(short.Steps))
	prefix := len(short.Steps) - 1
	assert.Equal(t, short.Steps[:prefix], longer.Steps[:prefix])
	assert.Equal(t, []string{"start", "x: 5", "10"}, longer.Output)
	assert.Equal(t, 4, lastStep(t, longer).Line)

	full := Interpret(src, []string{"5", "done"})
	assert.False(t, full.AwaitingInput)
	assert.Equal(t, longer.Steps[:len(longer.Steps)-1], full.Steps[:len(longer.Steps)-1])
}

func TestInputInsideFunctionSuspendsWholeRun(t *testing.T) {
	src := `def ask():
    v = input("? ")
    return v

a = ask()
print(a)
`
	r := Interpret(src, nil)
	assert.True(t, r.AwaitingInput)
	final := lastStep(t, r)
	assert.Equal(t, 2, final.Line)
	assert.Equal(t, []string{"ask"}, final.CallStack)
}

func TestGlobalDeclaration(t *testing.T) {
	src := `count = 0
def inc():
    global count
    count += 1

inc()
inc()
print(count)
`
	r := Interpret(src, nil)
	assert.Equal(t, []string{"2"}, r.Output)
}

func TestLocalScopeDoesNotLeak(t *testing.T) {
	src := `x = 1
def f():
    x = 5
    return x

y = f()
`
	final := lastStep(t, Interpret(src, nil))
	assert.Equal(t, "1", varValue(t, final, "x"))
	assert.Equal(t, "5", varValue(t, final, "y"))
}

func TestStepVariablesFollowLiveFrame(t *testing.T) {
	src := "g = 1\ndef f(a):\n    b = a + 1\n\nf(3)\n"
	r := Interpret(src, nil)
	require.Len(t, r.Steps, 3)

	inside := r.Steps[1]
	assert.Equal(t, []string{"f"}, inside.CallStack)
	names := []string{}
	for _, v := range inside.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestChangedFlags(t *testing.T) {
	r := Interpret("x = 1\ny = 2\nxs = []\nxs.append(x)\n", nil)
	require.Len(t, r.Steps, 4)

	x, _ := r.Steps[1].Variable("x")
	y, _ := r.Steps[1].Variable("y")
	assert.False(t, x.Changed)
	assert.True(t, y.Changed)

	xs, _ := r.Steps[3].Variable("xs")
	assert.True(t, xs.Changed, "in-place mutation marks the list variable")
	assert.Equal(t, "[1]", xs.Value)
}

func TestUnsupportedStatementsAreSkipped(t *testing.T) {
	src := `import os
x = 1
class A:
    pass
try:
    x = 2
except Exception:
    pass
print(x)
`
	r := Interpret(src, nil)
	assert.Len(t, r.Steps, 2)
	assert.Equal(t, []string{"1"}, r.Output)
}

func TestUnresolvedNamesAreNone(t *testing.T) {
	r := Interpret("x = missing\ny = nothing(1)\nz = x is None\n", nil)
	final := lastStep(t, r)
	assert.Equal(t, "None", varValue(t, final, "x"))
	assert.Equal(t, "None", varValue(t, final, "y"))
	assert.Equal(t, "True", varValue(t, final, "z"))
}

func TestIfElifElse(t *testing.T) {
	src := `x = 5
if x > 10:
    r = "big"
elif x > 3:
    r = "mid"
else:
    r = "small"
`
	r := Interpret(src, nil)
	var notes []string
	for _, s := range r.Steps {
		notes = append(notes, s.Annotation)
	}
	assert.Equal(t, []string{
		"Set x = 5",
		"Check x > 10: False",
		"Check x > 3: True",
		"Set r = 'mid'",
	}, notes)
}

func TestForLoopsAndControlFlow(t *testing.T) {
	src := `total = 0
for i in range(10, 0, -2):
    if i == 4:
        break
    if i == 8:
        continue
    total += i
for ch in "ab":
    total += 1
for k in range(5, 5):
    total = -1
`
	final := lastStep(t, Interpret(src, nil))
	assert.Equal(t, "18", varValue(t, final, "total"))
}

func TestForIteratesLiveList(t *testing.T) {
	src := `xs = [1, 2]
for x in xs:
    if x < 3:
        xs.append(x + 2)
`
	r := Interpret(src, nil)
	loops := 0
	for _, s := range r.Steps {
		if s.Line == 2 {
			loops++
		}
	}
	assert.Equal(t, 4, loops)
	assert.Equal(t, "[1, 2, 3, 4]", varValue(t, lastStep(t, r), "xs"))
}

func TestPrintFormatting(t *testing.T) {
	src := `x = 3.14159
print(f"pi={x:.2f}")
print(1, 2, sep="-")
print("a", end="")
print("b")
print([1, "two", None, True])
print(7 / 7)
`
	r := Interpret(src, nil)
	assert.Equal(t, []string{"pi=3.14", "1-2", "ab", "[1, 'two', None, True]", "1.0"}, r.Output)
	assert.Equal(t, "Print: pi=3.14", r.Steps[1].Annotation)
}

func TestBuiltinsAndMethods(t *testing.T) {
	src := `xs = [3, 1, 2]
a = len(xs)
b = min(xs)
c = max(4, 9, 2)
d = sorted(xs)
e = sum(xs)
f = abs(-4)
g = int("42") + 1
h = str(12) + "!"
k = round(2.5)
m = round(3.14159, 2)
xs.sort(reverse=True)
p = xs.pop()
xs.insert(0, 10)
q = xs.index(2)
s = "a,b,c".split(",")
t = "-".join(s)
u = "  hi ".strip().upper()
v = "hello"[1:3]
w = [1, 2, 3, 4][::-1]
y = list(range(3))
`
	final := lastStep(t, Interpret(src, nil))
	want := map[string]string{
		"a": "3", "b": "1", "c": "9", "d": "[1, 2, 3]", "e": "6", "f": "4",
		"g": "43", "h": "'12!'", "k": "2", "m": "3.14", "p": "1",
		"xs": "[10, 3, 2]", "q": "2", "s": "['a', 'b', 'c']", "t": "'a-b-c'",
		"u": "'HI'", "v": "'el'", "w": "[4, 3, 2, 1]", "y": "[0, 1, 2]",
	}
	for name, value := range want {
		assert.Equal(t, value, varValue(t, final, name), name)
	}
}

func TestAppendHighlightsNewIndex(t *testing.T) {
	r := Interpret("xs = [1]\nxs.append(2)\n", nil)
	hs := r.Steps[1].Highlights()
	require.Len(t, hs, 1)
	assert.Equal(t, 1, hs[0].Index)
	assert.Equal(t, trace.ColorWrite, hs[0].Color)
	assert.Equal(t, "Call xs.append(2)", r.Steps[1].Annotation)
}

func TestRemovalHighlightsVacatedSlot(t *testing.T) {
	r := Interpret("a = [10, 20, 30, 40]\na.pop(0)\na.pop()\na.remove(30)\n", nil)
	require.Len(t, r.Steps, 4)

	tests := []struct {
		step  int
		list  string
		index int
		label string
	}{
		{step: 1, list: "[20, 30, 40]", index: 0, label: "removed 10 from [0]"},
		{step: 2, list: "[20, 30]", index: 1, label: "removed 40 from [2]"},
		{step: 3, list: "[20]", index: 0, label: "removed 30 from [1]"},
	}
	for _, tt := range tests {
		s := r.Steps[tt.step]
		assert.Equal(t, tt.list, varValue(t, s, "a"))
		hs := s.Highlights()
		require.Len(t, hs, 1, "step %d", tt.step)
		assert.Equal(t, trace.Highlight{Container: "a", Index: tt.index, Color: trace.ColorRead, Label: tt.label}, hs[0])
	}
}

func TestRemovingLastElementHasNoHighlight(t *testing.T) {
	r := Interpret("a = [1]\nx = a.pop()\n", nil)
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "[]", varValue(t, r.Steps[1], "a"))
	assert.Equal(t, "1", varValue(t, r.Steps[1], "x"))
	assert.Empty(t, r.Steps[1].Highlights())
}

func TestSelfContainingListsCompare(t *testing.T) {
	r := Interpret("a = [1]\na.append(a)\nb = [1]\nb.append(b)\nprint(a == b)\nprint(a < b)\n", nil)
	require.Len(t, r.Steps, 6)
	assert.False(t, r.Truncated)
	assert.Equal(t, []string{"True", "False"}, r.Output)
	assert.Equal(t, "[1, [...]]", varValue(t, lastStep(t, r), "a"))
}

func TestHugeRepetitionIsNone(t *testing.T) {
	src := "s = 'ab' * 4611686018427387904\nt = [1] * 4611686018427387904\ne = [] * 4611686018427387904\nprint('after')\n"
	r := Interpret(src, nil)
	require.Len(t, r.Steps, 4)
	assert.Equal(t, []string{"after"}, r.Output)
	final := lastStep(t, r)
	assert.Equal(t, "None", varValue(t, final, "s"))
	assert.Equal(t, "None", varValue(t, final, "t"))
	assert.Equal(t, "[]", varValue(t, final, "e"))
}

func TestHighlightsLastOnlyOneStep(t *testing.T) {
	r := Interpret("xs = [1, 2]\nxs[0] = 5\ny = 1\n", nil)
	require.Len(t, r.Steps, 3)
	assert.Len(t, r.Steps[1].Highlights(), 1)
	assert.Empty(t, r.Steps[2].Highlights())
}

func TestOutOfRangeAccess(t *testing.T) {
	r := Interpret("xs = [1]\na = xs[5]\nxs[5] = 2\nb = xs[-1]\n", nil)
	final := lastStep(t, r)
	assert.Equal(t, "None", varValue(t, final, "a"))
	assert.Equal(t, "[1]", varValue(t, final, "xs"))
	assert.Equal(t, "1", varValue(t, final, "b"))
}

func TestEmptySource(t *testing.T) {
	r := Interpret("", nil)
	assert.NotNil(t, r.Steps)
	assert.Empty(t, r.Steps)
	assert.NotNil(t, r.Output)
	assert.False(t, r.AwaitingInput)
}

func TestStepsSequenceMatchesRun(t *testing.T) {
	var streamed []trace.Step
	for s := range Steps(bubbleSort, nil, DefaultOptions()) {
		streamed = append(streamed, s)
	}
	assert.Equal(t, Interpret(bubbleSort, nil).Steps, streamed)
}

func TestStepsSequenceStopsEarly(t *testing.T) {
	var got []int
	for s := range Steps("while True:\n    pass\n", nil, DefaultOptions()) {
		got = append(got, s.Line)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int{1, 2, 1}, got)
}

func TestCursorOverSteps(t *testing.T) {
	c := trace.NewCursor(Steps(fibonacci, nil, DefaultOptions()))
	defer c.Close()

	s, ok := c.At(0)
	require.True(t, ok)
	assert.Equal(t, 2, s.Line)
	assert.Equal(t, 1, c.Loaded())
	assert.Equal(t, len(Interpret(fibonacci, nil).Steps), c.Len())
}
