package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/itsmostafa/steptrace/internal/runtime"
)

type builtinFunc func(in *interp, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error)

// builtins is filled in init because print and input reach back into the
// interpreter.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"print":     builtinPrint,
		"input":     builtinInput,
		"len":       pure(builtinLen),
		"range":     pure(builtinRange),
		"min":       pure(func(args []runtime.Value) runtime.Value { return extreme(args, -1) }),
		"max":       pure(func(args []runtime.Value) runtime.Value { return extreme(args, 1) }),
		"abs":       pure(builtinAbs),
		"sorted":    builtinSorted,
		"list":      pure(builtinList),
		"int":       pure(builtinInt),
		"float":     pure(builtinFloat),
		"str":       pure(builtinStr),
		"bool":      pure(builtinBool),
		"sum":       pure(builtinSum),
		"round":     pure(builtinRound),
		"enumerate": pure(passthrough),
		"zip":       pure(passthrough),
	}
}

// pure adapts a builtin that only looks at its positional arguments.
func pure(f func(args []runtime.Value) runtime.Value) builtinFunc {
	return func(_ *interp, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
		return f(args), nil
	}
}

func builtinPrint(in *interp, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	sep, end := " ", "\n"
	if s, ok := kwargs["sep"].(runtime.Str); ok {
		sep = string(s)
	}
	if e, ok := kwargs["end"].(runtime.Str); ok {
		end = string(e)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = runtime.Display(a)
	}
	text := strings.Join(parts, sep)
	in.out.Write(text + end)
	in.lastPrinted = text
	return runtime.None, nil
}

func builtinInput(in *interp, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	prompt := ""
	if len(args) > 0 {
		prompt = runtime.Display(args[0])
	}
	return in.readInput(prompt)
}

func builtinLen(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.None
	}
	switch v := args[0].(type) {
	case *runtime.List:
		return runtime.Int(len(v.Elems))
	case runtime.Str:
		return runtime.Int(len([]rune(string(v))))
	}
	return runtime.None
}

// rangeBounds reads range(stop), range(start, stop) or range(start, stop, step).
func rangeBounds(args []runtime.Value) (start, stop, step int64, ok bool) {
	ints := make([]int64, len(args))
	for i, a := range args {
		if ints[i], ok = intOperand(a); !ok {
			return 0, 0, 0, false
		}
	}
	switch len(ints) {
	case 1:
		return 0, ints[0], 1, true
	case 2:
		return ints[0], ints[1], 1, true
	case 3:
		return ints[0], ints[1], ints[2], true
	}
	return 0, 0, 0, false
}

func builtinRange(args []runtime.Value) runtime.Value {
	start, stop, step, ok := rangeBounds(args)
	if !ok {
		return runtime.None
	}
	out := runtime.NewList()
	if step == 0 {
		return out
	}
	for k := start; (step > 0 && k < stop) || (step < 0 && k > stop); k += step {
		if len(out.Elems) >= maxSequenceLen {
			break
		}
		out.Elems = append(out.Elems, runtime.Int(k))
	}
	return out
}

// extreme implements min (dir -1) and max (dir 1) over one list argument or
// over all arguments.
func extreme(args []runtime.Value, dir int) runtime.Value {
	vals := args
	if len(args) == 1 {
		l, ok := args[0].(*runtime.List)
		if !ok {
			return runtime.None
		}
		vals = l.Elems
	}
	if len(vals) == 0 {
		return runtime.None
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if cmp, ok := runtime.Compare(v, best); ok && cmp == dir {
			best = v
		}
	}
	return best
}

func builtinAbs(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.None
	}
	switch v := args[0].(type) {
	case runtime.Int:
		if v < 0 {
			return -v
		}
		return v
	case runtime.Float:
		return runtime.Float(math.Abs(float64(v)))
	case runtime.Bool:
		n, _ := intOperand(v)
		return runtime.Int(n)
	}
	return runtime.None
}

func builtinSorted(_ *interp, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	l, ok := builtinList(args).(*runtime.List)
	if !ok {
		return runtime.None, nil
	}
	sortValues(l.Elems, runtime.Truthy(kwargOr(kwargs, "reverse", runtime.Bool(false))))
	return l, nil
}

// builtinList copies a list or splits a string into characters.
func builtinList(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.NewList()
	}
	switch v := args[0].(type) {
	case *runtime.List:
		return v.Copy()
	case runtime.Str:
		out := runtime.NewList()
		for _, r := range string(v) {
			out.Elems = append(out.Elems, runtime.Str(r))
		}
		return out
	}
	return runtime.None
}

func builtinInt(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.Int(0)
	}
	switch v := args[0].(type) {
	case runtime.Int:
		return v
	case runtime.Bool, runtime.Float:
		n, ok := runtime.ToInt(v)
		if !ok {
			return runtime.None
		}
		return runtime.Int(n)
	case runtime.Str:
		n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(string(v)), "_", ""), 10, 64)
		if err != nil {
			return runtime.None
		}
		return runtime.Int(n)
	}
	return runtime.None
}

func builtinFloat(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.Float(0)
	}
	if s, ok := args[0].(runtime.Str); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return runtime.None
		}
		return runtime.Float(f)
	}
	if f, ok := runtime.ToFloat(args[0]); ok {
		return runtime.Float(f)
	}
	return runtime.None
}

func builtinStr(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.Str("")
	}
	return runtime.Str(runtime.Display(args[0]))
}

func builtinBool(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.Bool(false)
	}
	return runtime.Bool(runtime.Truthy(args[0]))
}

func builtinSum(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.None
	}
	l, ok := args[0].(*runtime.List)
	if !ok {
		return runtime.None
	}
	var total runtime.Value = runtime.Int(0)
	if len(args) > 1 {
		total = args[1]
	}
	for _, e := range l.Elems {
		total = binaryOp("+", total, e)
	}
	return total
}

// builtinRound rounds half to even. Without ndigits the result is an Int.
func builtinRound(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.None
	}
	f, ok := runtime.ToFloat(args[0])
	if !ok {
		return runtime.None
	}
	if len(args) < 2 || args[1] == runtime.None {
		return runtime.Int(int64(math.RoundToEven(f)))
	}
	digits, ok := intOperand(args[1])
	if !ok {
		return runtime.None
	}
	if _, isInt := args[0].(runtime.Int); isInt && digits >= 0 {
		return args[0]
	}
	scale := math.Pow(10, float64(digits))
	return runtime.Float(math.RoundToEven(f*scale) / scale)
}

// passthrough returns its first argument; enumerate and zip are accepted
// but not modelled.
func passthrough(args []runtime.Value) runtime.Value {
	if len(args) == 0 {
		return runtime.None
	}
	return args[0]
}
