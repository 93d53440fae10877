package interpreter

import (
	"strings"

	"github.com/itsmostafa/steptrace/internal/runtime"
	"github.com/itsmostafa/steptrace/internal/syntax"
	"github.com/itsmostafa/steptrace/internal/trace"
)

// eval evaluates an expression. Errors are only the run-level unwinds
// (input suspension, step ceiling, stopped consumer); anything the language
// subset cannot evaluate is None.
func (in *interp) eval(expr syntax.Expr) (runtime.Value, error) {
	switch e := expr.(type) {
	case *syntax.Name:
		if v, ok := in.env.Get(e.Name); ok {
			return v, nil
		}
		return runtime.None, nil
	case *syntax.IntLit:
		return runtime.Int(e.Value), nil
	case *syntax.FloatLit:
		return runtime.Float(e.Value), nil
	case *syntax.StrLit:
		return runtime.Str(e.Value), nil
	case *syntax.BoolLit:
		return runtime.Bool(e.Value), nil
	case *syntax.NoneLit:
		return runtime.None, nil
	case *syntax.FString:
		return in.evalFString(e)
	case *syntax.ListLit:
		return in.evalElems(e.Elems)
	case *syntax.TupleLit:
		return in.evalElems(e.Elems)
	case *syntax.Paren:
		return in.eval(e.X)
	case *syntax.Unary:
		v, err := in.eval(e.X)
		if err != nil {
			return nil, err
		}
		return unaryOp(e.Op, v), nil
	case *syntax.Not:
		v, err := in.eval(e.X)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(!runtime.Truthy(v)), nil
	case *syntax.Binary:
		l, err := in.eval(e.L)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(e.R)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, l, r), nil
	case *syntax.BoolOp:
		l, err := in.eval(e.L)
		if err != nil {
			return nil, err
		}
		if (e.Op == "and") != runtime.Truthy(l) {
			return l, nil
		}
		return in.eval(e.R)
	case *syntax.Compare:
		return in.evalCompare(e)
	case *syntax.IfExpr:
		cond, err := in.eval(e.Cond)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return in.eval(e.Then)
		}
		return in.eval(e.Else)
	case *syntax.Call:
		return in.evalCall(e)
	case *syntax.Index:
		v, _, _, err := in.evalIndex(e)
		return v, err
	case *syntax.Slice:
		return in.evalSlice(e)
	}
	return runtime.None, nil
}

func (in *interp) evalElems(exprs []syntax.Expr) (runtime.Value, error) {
	elems := make([]runtime.Value, 0, len(exprs))
	for _, x := range exprs {
		v, err := in.eval(x)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return runtime.NewList(elems...), nil
}

func (in *interp) evalArgs(exprs []syntax.Expr) ([]runtime.Value, error) {
	args := make([]runtime.Value, 0, len(exprs))
	for _, x := range exprs {
		v, err := in.eval(x)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (in *interp) evalFString(e *syntax.FString) (runtime.Value, error) {
	var b strings.Builder
	for _, part := range e.Parts {
		if part.Expr == nil {
			b.WriteString(part.Text)
			continue
		}
		v, err := in.eval(part.Expr)
		if err != nil {
			return nil, err
		}
		b.WriteString(runtime.FormatSpec(v, part.Spec))
	}
	return runtime.Str(b.String()), nil
}

// evalCompare evaluates a comparison chain left to right, stopping at the
// first false link. Subscript operands queue compare highlights.
func (in *interp) evalCompare(e *syntax.Compare) (runtime.Value, error) {
	left, err := in.compareOperand(e.First)
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		right, err := in.compareOperand(e.Rest[i])
		if err != nil {
			return nil, err
		}
		if !compareOp(op, left, right) {
			return runtime.Bool(false), nil
		}
		left = right
	}
	return runtime.Bool(true), nil
}

func (in *interp) compareOperand(x syntax.Expr) (runtime.Value, error) {
	idx, ok := unparen(x).(*syntax.Index)
	if !ok {
		return in.eval(x)
	}
	v, list, i, err := in.evalIndex(idx)
	if err != nil {
		return nil, err
	}
	if list != nil {
		in.rec.highlight(list, i, trace.ColorCompare, idx.String())
	}
	return v, nil
}

func unparen(x syntax.Expr) syntax.Expr {
	for {
		p, ok := x.(*syntax.Paren)
		if !ok {
			return x
		}
		x = p.X
	}
}

// evalIndex reads x[i]. For a list element it also reports the list and the
// normalised index so callers can highlight it. Out of range reads are None.
func (in *interp) evalIndex(e *syntax.Index) (runtime.Value, *runtime.List, int, error) {
	x, err := in.eval(e.X)
	if err != nil {
		return nil, nil, 0, err
	}
	iv, err := in.eval(e.Index)
	if err != nil {
		return nil, nil, 0, err
	}
	i, ok := intOperand(iv)
	if !ok {
		return runtime.None, nil, 0, nil
	}
	switch x := x.(type) {
	case *runtime.List:
		n, ok := x.Normalize(i)
		if !ok {
			return runtime.None, nil, 0, nil
		}
		return x.Elems[n], x, n, nil
	case runtime.Str:
		runes := []rune(string(x))
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return runtime.None, nil, 0, nil
		}
		return runtime.Str(runes[i]), nil, 0, nil
	}
	return runtime.None, nil, 0, nil
}

func (in *interp) evalSlice(e *syntax.Slice) (runtime.Value, error) {
	x, err := in.eval(e.X)
	if err != nil {
		return nil, err
	}
	bounds := make([]runtime.Value, 3)
	for i, b := range []syntax.Expr{e.Low, e.High, e.Step} {
		if b == nil {
			bounds[i] = runtime.None
			continue
		}
		if bounds[i], err = in.eval(b); err != nil {
			return nil, err
		}
	}
	switch x := x.(type) {
	case *runtime.List:
		start, stop, stride, ok := sliceBounds(len(x.Elems), bounds[0], bounds[1], bounds[2])
		if !ok {
			return runtime.None, nil
		}
		out := runtime.NewList()
		for _, i := range sliceIndexes(start, stop, stride) {
			out.Elems = append(out.Elems, x.Elems[i])
		}
		return out, nil
	case runtime.Str:
		runes := []rune(string(x))
		start, stop, stride, ok := sliceBounds(len(runes), bounds[0], bounds[1], bounds[2])
		if !ok {
			return runtime.None, nil
		}
		var b strings.Builder
		for _, i := range sliceIndexes(start, stop, stride) {
			b.WriteRune(runes[i])
		}
		return runtime.Str(b.String()), nil
	}
	return runtime.None, nil
}
