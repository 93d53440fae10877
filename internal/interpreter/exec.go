package interpreter

import (
	"fmt"
	"strings"

	"github.com/itsmostafa/steptrace/internal/runtime"
	"github.com/itsmostafa/steptrace/internal/syntax"
	"github.com/itsmostafa/steptrace/internal/trace"
)

func (in *interp) execBlock(stmts []syntax.Stmt) error {
	for _, stmt := range stmts {
		if err := in.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *interp) exec(stmt syntax.Stmt) error {
	in.line = stmt.LineNo()
	switch s := stmt.(type) {
	case *syntax.FuncDef:
		return nil
	case *syntax.Unsupported:
		in.log.Debug().Int("line", s.Line).Str("text", s.Text).Msg("skipping unsupported statement")
		return nil
	case *syntax.Global:
		for _, name := range s.Names {
			in.env.Live().DeclareGlobal(name)
		}
		return nil
	case *syntax.Pass:
		return in.rec.record(s.Line, "Pass")
	case *syntax.Break:
		if err := in.rec.record(s.Line, "Break out of loop"); err != nil {
			return err
		}
		return breakSignal{}
	case *syntax.Continue:
		if err := in.rec.record(s.Line, "Continue to next iteration"); err != nil {
			return err
		}
		return continueSignal{}
	case *syntax.Return:
		return in.execReturn(s)
	case *syntax.If:
		return in.execIf(s)
	case *syntax.For:
		return in.execFor(s)
	case *syntax.While:
		return in.execWhile(s)
	case *syntax.Assign:
		return in.execAssign(s)
	case *syntax.AugAssign:
		return in.execAugAssign(s)
	case *syntax.ExprStmt:
		return in.execExpr(s)
	}
	return nil
}

func (in *interp) execReturn(s *syntax.Return) error {
	var v runtime.Value = runtime.None
	if s.Value != nil {
		var err error
		if v, err = in.eval(s.Value); err != nil {
			return err
		}
	}
	note := "Return " + runtime.Repr(v)
	if stack := in.env.CallStack(); len(stack) > 0 {
		note += " from " + stack[len(stack)-1]
	}
	if err := in.rec.record(s.Line, note); err != nil {
		return err
	}
	return returnSignal{value: v}
}

func (in *interp) execIf(s *syntax.If) error {
	for _, br := range s.Branches {
		in.line = br.Line
		cond, err := in.eval(br.Cond)
		if err != nil {
			return err
		}
		ok := runtime.Truthy(cond)
		if err := in.rec.record(br.Line, fmt.Sprintf("Check %s: %s", br.Cond, boolWord(ok))); err != nil {
			return err
		}
		if ok {
			return in.execBlock(br.Body)
		}
	}
	return in.execBlock(s.Else)
}

func boolWord(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// loopBody runs one iteration. done reports a break; any other error is
// returned for the caller to propagate.
func (in *interp) loopBody(body []syntax.Stmt) (done bool, err error) {
	err = in.execBlock(body)
	if err == nil {
		return false, nil
	}
	brk, cont := isLoopSignal(err)
	switch {
	case brk:
		return true, nil
	case cont:
		return false, nil
	}
	return false, err
}

func (in *interp) execWhile(s *syntax.While) error {
	for iter := 0; ; iter++ {
		if iter >= in.opts.MaxLoopIterations {
			in.log.Debug().Int("line", s.Line).Int("iterations", iter).Msg("loop iteration cap reached")
			return nil
		}
		in.line = s.Line
		cond, err := in.eval(s.Cond)
		if err != nil {
			return err
		}
		ok := runtime.Truthy(cond)
		if err := in.rec.record(s.Line, fmt.Sprintf("Loop condition %s: %s", s.Cond, boolWord(ok))); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		done, err := in.loopBody(s.Body)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (in *interp) execFor(s *syntax.For) error {
	if call, ok := s.Iter.(*syntax.Call); ok {
		if name, ok := call.Func.(*syntax.Name); ok && name.Name == "range" && in.funcs["range"] == nil {
			return in.forRange(s, call)
		}
	}

	it, err := in.eval(s.Iter)
	if err != nil {
		return err
	}
	switch seq := it.(type) {
	case *runtime.List:
		// The length is re-read every iteration: the loop sees mutation of
		// the list it walks.
		for i := 0; i < len(seq.Elems); i++ {
			done, err := in.iterate(s, i, seq.Elems[i])
			if err != nil || done {
				return err
			}
		}
	case runtime.Str:
		for i, r := range []rune(string(seq)) {
			done, err := in.iterate(s, i, runtime.Str(r))
			if err != nil || done {
				return err
			}
		}
	default:
		in.log.Debug().Int("line", s.Line).Str("type", runtime.TypeName(it)).Msg("for over non-iterable value")
	}
	return nil
}

func (in *interp) forRange(s *syntax.For, call *syntax.Call) error {
	args, err := in.evalArgs(call.Args)
	if err != nil {
		return err
	}
	start, stop, step, ok := rangeBounds(args)
	if !ok || step == 0 {
		return nil
	}
	i := 0
	for k := start; (step > 0 && k < stop) || (step < 0 && k > stop); k += step {
		done, err := in.iterate(s, i, runtime.Int(k))
		if err != nil || done {
			return err
		}
		i++
	}
	return nil
}

// iterate binds the loop variable, records the header step and runs the
// body once.
func (in *interp) iterate(s *syntax.For, i int, v runtime.Value) (done bool, err error) {
	if i >= in.opts.MaxLoopIterations {
		in.log.Debug().Int("line", s.Line).Int("iterations", i).Msg("loop iteration cap reached")
		return true, nil
	}
	in.line = s.Line
	in.env.Set(s.Var, v)
	if err := in.rec.record(s.Line, fmt.Sprintf("Loop: %s = %s", s.Var, runtime.Repr(v))); err != nil {
		return false, err
	}
	return in.loopBody(s.Body)
}

func (in *interp) execAssign(s *syntax.Assign) error {
	if len(s.Targets) == 1 {
		v, err := in.eval(s.Values[0])
		if err != nil {
			return err
		}
		if err := in.assign(s.Targets[0], v, trace.ColorWrite); err != nil {
			return err
		}
		return in.rec.record(s.Line, fmt.Sprintf("Set %s = %s", s.Targets[0], runtime.Repr(v)))
	}

	var values []runtime.Value
	if len(s.Values) == 1 {
		v, err := in.eval(s.Values[0])
		if err != nil {
			return err
		}
		l, ok := v.(*runtime.List)
		if !ok || len(l.Elems) != len(s.Targets) {
			in.log.Debug().Int("line", s.Line).Msg("cannot unpack value, skipping assignment")
			return nil
		}
		values = append(values, l.Elems...)
	} else {
		vs, err := in.evalArgs(s.Values)
		if err != nil {
			return err
		}
		values = vs
	}

	color := trace.ColorWrite
	if isSwap(s) {
		color = trace.ColorSwap
	}
	parts := make([]string, len(s.Targets))
	for i, target := range s.Targets {
		if err := in.assign(target, values[i], color); err != nil {
			return err
		}
		parts[i] = fmt.Sprintf("%s = %s", target, runtime.Repr(values[i]))
	}

	note := "Set " + strings.Join(parts, ", ")
	if color == trace.ColorSwap {
		note = fmt.Sprintf("Swap %s and %s", s.Targets[0], s.Targets[1])
	}
	return in.rec.record(s.Line, note)
}

// isSwap matches `a[i], a[j] = a[j], a[i]`: two subscript targets whose
// values are the same subscripts in reverse order.
func isSwap(s *syntax.Assign) bool {
	if len(s.Targets) != 2 || len(s.Values) != 2 {
		return false
	}
	for _, x := range append(append([]syntax.Expr{}, s.Targets...), s.Values...) {
		if _, ok := x.(*syntax.Index); !ok {
			return false
		}
	}
	return s.Targets[0].String() == s.Values[1].String() && s.Targets[1].String() == s.Values[0].String()
}

// assign stores v into a name or a list element. Element writes highlight
// the index with color; out of range writes and writes into non-lists are
// ignored.
func (in *interp) assign(target syntax.Expr, v runtime.Value, color trace.Color) error {
	switch t := target.(type) {
	case *syntax.Name:
		in.env.Set(t.Name, v)
	case *syntax.Index:
		list, n, ok, err := in.elementRef(t)
		if err != nil || !ok {
			return err
		}
		list.Elems[n] = v
		in.touch(t.X)
		in.rec.highlight(list, n, color, t.String())
	}
	return nil
}

// elementRef resolves the list and normalised index a subscript denotes.
func (in *interp) elementRef(t *syntax.Index) (*runtime.List, int, bool, error) {
	x, err := in.eval(t.X)
	if err != nil {
		return nil, 0, false, err
	}
	iv, err := in.eval(t.Index)
	if err != nil {
		return nil, 0, false, err
	}
	list, ok := x.(*runtime.List)
	if !ok {
		return nil, 0, false, nil
	}
	i, ok := intOperand(iv)
	if !ok {
		return nil, 0, false, nil
	}
	n, ok := list.Normalize(i)
	return list, n, ok, nil
}

func (in *interp) touch(x syntax.Expr) {
	if name, ok := unparen(x).(*syntax.Name); ok {
		in.env.Touch(name.Name)
	}
}

func (in *interp) execAugAssign(s *syntax.AugAssign) error {
	switch t := s.Target.(type) {
	case *syntax.Name:
		cur, _ := in.env.Get(t.Name)
		if cur == nil {
			cur = runtime.None
		}
		rhs, err := in.eval(s.Value)
		if err != nil {
			return err
		}
		if l, ok := cur.(*runtime.List); ok && s.Op == "+" {
			if r, ok := rhs.(*runtime.List); ok {
				l.Elems = append(l.Elems, r.Copy().Elems...)
				in.env.Touch(t.Name)
				return in.rec.record(s.Line, fmt.Sprintf("Update %s += %s, now %s", t.Name, s.Value, runtime.Repr(l)))
			}
		}
		v := binaryOp(s.Op, cur, rhs)
		in.env.Set(t.Name, v)
		return in.rec.record(s.Line, fmt.Sprintf("Update %s %s= %s, now %s", t.Name, s.Op, s.Value, runtime.Repr(v)))
	case *syntax.Index:
		list, n, ok, err := in.elementRef(t)
		if err != nil {
			return err
		}
		rhs, err := in.eval(s.Value)
		if err != nil {
			return err
		}
		if !ok {
			return in.rec.record(s.Line, fmt.Sprintf("Update %s %s= %s", t, s.Op, s.Value))
		}
		v := binaryOp(s.Op, list.Elems[n], rhs)
		list.Elems[n] = v
		in.touch(t.X)
		in.rec.highlight(list, n, trace.ColorWrite, t.String())
		return in.rec.record(s.Line, fmt.Sprintf("Update %s %s= %s, now %s", t, s.Op, s.Value, runtime.Repr(v)))
	}
	return nil
}

func (in *interp) execExpr(s *syntax.ExprStmt) error {
	in.lastPrinted = ""
	if _, err := in.eval(s.X); err != nil {
		return err
	}
	return in.rec.record(s.Line, in.describe(s.X))
}

func (in *interp) describe(x syntax.Expr) string {
	call, ok := x.(*syntax.Call)
	if !ok {
		return "Evaluate " + x.String()
	}
	if name, ok := call.Func.(*syntax.Name); ok && name.Name == "print" && in.funcs["print"] == nil {
		return "Print: " + in.lastPrinted
	}
	return "Call " + x.String()
}
