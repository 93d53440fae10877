package interpreter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/itsmostafa/steptrace/internal/runtime"
	"github.com/itsmostafa/steptrace/internal/syntax"
	"github.com/itsmostafa/steptrace/internal/trace"
)

// evalCall dispatches a call to a user function, a builtin or a method.
// User functions shadow builtins of the same name. Calls to unknown names
// evaluate to None without evaluating their arguments.
func (in *interp) evalCall(e *syntax.Call) (runtime.Value, error) {
	switch fn := e.Func.(type) {
	case *syntax.Name:
		if def, ok := in.funcs[fn.Name]; ok {
			args, kwargs, err := in.callArgs(e)
			if err != nil {
				return nil, err
			}
			return in.callFunction(def, args, kwargs)
		}
		if b, ok := builtins[fn.Name]; ok {
			args, kwargs, err := in.callArgs(e)
			if err != nil {
				return nil, err
			}
			return b(in, args, kwargs)
		}
		in.log.Debug().Str("name", fn.Name).Int("line", in.line).Msg("call to unknown function")
		return runtime.None, nil
	case *syntax.Attr:
		recv, err := in.eval(fn.X)
		if err != nil {
			return nil, err
		}
		args, kwargs, err := in.callArgs(e)
		if err != nil {
			return nil, err
		}
		switch r := recv.(type) {
		case *runtime.List:
			v := in.listMethod(r, fn.Name, args, kwargs)
			if name, ok := unparen(fn.X).(*syntax.Name); ok && mutating[fn.Name] {
				in.env.Touch(name.Name)
			}
			return v, nil
		case runtime.Str:
			return strMethod(r, fn.Name, args), nil
		}
	}
	return runtime.None, nil
}

func (in *interp) callArgs(e *syntax.Call) ([]runtime.Value, map[string]runtime.Value, error) {
	args, err := in.evalArgs(e.Args)
	if err != nil {
		return nil, nil, err
	}
	var kwargs map[string]runtime.Value
	for _, kw := range e.Keywords {
		v, err := in.eval(kw.Value)
		if err != nil {
			return nil, nil, err
		}
		if kwargs == nil {
			kwargs = make(map[string]runtime.Value)
		}
		kwargs[kw.Name] = v
	}
	return args, kwargs, nil
}

// callFunction runs a user function in a new frame. Parameters bind
// positionally, then by keyword, then from defaults evaluated in the
// caller's frame; anything still missing is None. Lists are shared with the
// caller, so mutation through a parameter is visible after the call.
func (in *interp) callFunction(def *syntax.FuncDef, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if in.env.Depth() >= in.opts.MaxCallDepth {
		in.log.Debug().Str("function", def.Name).Int("depth", in.env.Depth()).Msg("call depth limit reached")
		return runtime.None, nil
	}

	bound := make([]runtime.Value, len(def.Params))
	for i, p := range def.Params {
		if i < len(args) {
			bound[i] = args[i]
			continue
		}
		if v, ok := kwargs[p.Name]; ok {
			bound[i] = v
			continue
		}
		if p.Default != nil {
			v, err := in.eval(p.Default)
			if err != nil {
				return nil, err
			}
			bound[i] = v
			continue
		}
		bound[i] = runtime.None
	}

	callerLine := in.line
	frame := in.env.Push(def.Name)
	for i, p := range def.Params {
		frame.Set(p.Name, bound[i])
	}
	in.log.Trace().Str("function", def.Name).Int("depth", in.env.Depth()).Msg("call")

	err := in.execBlock(def.Body)
	in.env.Pop()
	in.line = callerLine

	var ret returnSignal
	switch {
	case err == nil:
		return runtime.None, nil
	case errors.As(err, &ret):
		return ret.value, nil
	}
	if brk, cont := isLoopSignal(err); brk || cont {
		return runtime.None, nil
	}
	return nil, err
}

var mutating = map[string]bool{
	"append": true, "pop": true, "insert": true, "remove": true, "extend": true,
	"reverse": true, "sort": true, "clear": true,
}

// listMethod applies a list method in place. Writes queue write highlights
// at the new element and removals queue read highlights (see removed).
func (in *interp) listMethod(l *runtime.List, name string, args []runtime.Value, kwargs map[string]runtime.Value) runtime.Value {
	arg := func(i int) runtime.Value {
		if i < len(args) {
			return args[i]
		}
		return runtime.None
	}
	switch name {
	case "append":
		l.Elems = append(l.Elems, arg(0))
		in.rec.highlight(l, len(l.Elems)-1, trace.ColorWrite, "append")
		return runtime.None
	case "pop":
		if len(l.Elems) == 0 {
			return runtime.None
		}
		i := int64(len(l.Elems) - 1)
		if len(args) > 0 {
			var ok bool
			if i, ok = intOperand(args[0]); !ok {
				return runtime.None
			}
		}
		n, ok := l.Normalize(i)
		if !ok {
			return runtime.None
		}
		v := l.Elems[n]
		l.Elems = append(l.Elems[:n], l.Elems[n+1:]...)
		in.removed(l, n, v)
		return v
	case "insert":
		i, ok := intOperand(arg(0))
		if !ok {
			return runtime.None
		}
		n := int64(len(l.Elems))
		if i < 0 {
			i = max(i+n, 0)
		}
		i = min(i, n)
		l.Elems = append(l.Elems, nil)
		copy(l.Elems[i+1:], l.Elems[i:])
		l.Elems[i] = arg(1)
		in.rec.highlight(l, int(i), trace.ColorWrite, "insert")
		return runtime.None
	case "remove":
		for i, e := range l.Elems {
			if runtime.Equal(e, arg(0)) {
				l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
				in.removed(l, i, e)
				break
			}
		}
		return runtime.None
	case "extend":
		switch src := arg(0).(type) {
		case *runtime.List:
			l.Elems = append(l.Elems, src.Copy().Elems...)
		case runtime.Str:
			for _, r := range string(src) {
				l.Elems = append(l.Elems, runtime.Str(r))
			}
		}
		return runtime.None
	case "index":
		for i, e := range l.Elems {
			if runtime.Equal(e, arg(0)) {
				return runtime.Int(i)
			}
		}
		return runtime.None
	case "count":
		n := 0
		for _, e := range l.Elems {
			if runtime.Equal(e, arg(0)) {
				n++
			}
		}
		return runtime.Int(n)
	case "reverse":
		for i, j := 0, len(l.Elems)-1; i < j; i, j = i+1, j-1 {
			l.Elems[i], l.Elems[j] = l.Elems[j], l.Elems[i]
		}
		return runtime.None
	case "sort":
		sortValues(l.Elems, runtime.Truthy(kwargOr(kwargs, "reverse", runtime.Bool(false))))
		return runtime.None
	case "copy":
		return l.Copy()
	case "clear":
		l.Elems = l.Elems[:0]
		return runtime.None
	}
	in.log.Debug().Str("method", name).Msg("unsupported list method")
	return runtime.None
}

// removed queues a read highlight for an element taken out at index n. The
// element is gone by the time the step is recorded, so the highlight marks
// the slot it left: the element that moved into it, or the new last element
// when it was the end. The label names the removed value and its index. An
// emptied list gets no highlight.
func (in *interp) removed(l *runtime.List, n int, v runtime.Value) {
	if len(l.Elems) == 0 {
		return
	}
	in.rec.highlight(l, min(n, len(l.Elems)-1), trace.ColorRead, fmt.Sprintf("removed %s from [%d]", runtime.Repr(v), n))
}

func kwargOr(kwargs map[string]runtime.Value, name string, def runtime.Value) runtime.Value {
	if v, ok := kwargs[name]; ok {
		return v
	}
	return def
}

// sortValues sorts in place, stable; pairs that cannot be ordered keep their
// relative order.
func sortValues(vals []runtime.Value, reverse bool) {
	sort.SliceStable(vals, func(i, j int) bool {
		cmp, ok := runtime.Compare(vals[i], vals[j])
		if !ok {
			return false
		}
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
}

func strMethod(s runtime.Str, name string, args []runtime.Value) runtime.Value {
	str := string(s)
	strArg := func(i int) (string, bool) {
		if i >= len(args) {
			return "", false
		}
		a, ok := args[i].(runtime.Str)
		return string(a), ok
	}
	switch name {
	case "upper":
		return runtime.Str(strings.ToUpper(str))
	case "lower":
		return runtime.Str(strings.ToLower(str))
	case "strip", "lstrip", "rstrip":
		cutset, custom := strArg(0)
		out := str
		if name != "rstrip" {
			if custom {
				out = strings.TrimLeft(out, cutset)
			} else {
				out = strings.TrimLeftFunc(out, unicode.IsSpace)
			}
		}
		if name != "lstrip" {
			if custom {
				out = strings.TrimRight(out, cutset)
			} else {
				out = strings.TrimRightFunc(out, unicode.IsSpace)
			}
		}
		return runtime.Str(out)
	case "split":
		var parts []string
		if sep, ok := strArg(0); ok && sep != "" {
			parts = strings.Split(str, sep)
		} else {
			parts = strings.Fields(str)
		}
		out := runtime.NewList()
		for _, p := range parts {
			out.Elems = append(out.Elems, runtime.Str(p))
		}
		return out
	case "join":
		if len(args) == 0 {
			return runtime.None
		}
		l, ok := args[0].(*runtime.List)
		if !ok {
			return runtime.None
		}
		parts := make([]string, len(l.Elems))
		for i, e := range l.Elems {
			parts[i] = runtime.Display(e)
		}
		return runtime.Str(strings.Join(parts, str))
	case "replace":
		old, ok1 := strArg(0)
		repl, ok2 := strArg(1)
		if !ok1 || !ok2 {
			return s
		}
		return runtime.Str(strings.ReplaceAll(str, old, repl))
	case "startswith":
		prefix, _ := strArg(0)
		return runtime.Bool(strings.HasPrefix(str, prefix))
	case "endswith":
		suffix, _ := strArg(0)
		return runtime.Bool(strings.HasSuffix(str, suffix))
	case "isdigit":
		if str == "" {
			return runtime.Bool(false)
		}
		for _, r := range str {
			if !unicode.IsDigit(r) {
				return runtime.Bool(false)
			}
		}
		return runtime.Bool(true)
	case "find":
		sub, _ := strArg(0)
		i := strings.Index(str, sub)
		if i < 0 {
			return runtime.Int(-1)
		}
		return runtime.Int(len([]rune(str[:i])))
	}
	return runtime.None
}
