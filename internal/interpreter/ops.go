package interpreter

import (
	"math"
	"strings"

	"github.com/itsmostafa/steptrace/internal/runtime"
)

// intOperand accepts Int and Bool, the operands that keep integer arithmetic.
func intOperand(v runtime.Value) (int64, bool) {
	switch v := v.(type) {
	case runtime.Int:
		return int64(v), true
	case runtime.Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// binaryOp applies an arithmetic operator. Operand kinds it does not define
// yield None; division and modulo by zero yield 0.
func binaryOp(op string, l, r runtime.Value) runtime.Value {
	switch op {
	case "+":
		if ls, ok := l.(runtime.Str); ok {
			if rs, ok := r.(runtime.Str); ok {
				return ls + rs
			}
			return runtime.None
		}
		if ll, ok := l.(*runtime.List); ok {
			if rl, ok := r.(*runtime.List); ok {
				elems := make([]runtime.Value, 0, len(ll.Elems)+len(rl.Elems))
				elems = append(elems, ll.Elems...)
				elems = append(elems, rl.Elems...)
				return runtime.NewList(elems...)
			}
			return runtime.None
		}
	case "*":
		if v, ok := repeat(l, r); ok {
			return v
		}
		if v, ok := repeat(r, l); ok {
			return v
		}
	}

	if !runtime.IsNumber(l) || !runtime.IsNumber(r) {
		return runtime.None
	}

	li, lInt := intOperand(l)
	ri, rInt := intOperand(r)
	if lInt && rInt {
		switch op {
		case "+":
			return runtime.Int(li + ri)
		case "-":
			return runtime.Int(li - ri)
		case "*":
			return runtime.Int(li * ri)
		case "/":
			if ri == 0 {
				return runtime.Int(0)
			}
			return runtime.Float(float64(li) / float64(ri))
		case "//":
			if ri == 0 {
				return runtime.Int(0)
			}
			return runtime.Int(floorDiv(li, ri))
		case "%":
			if ri == 0 {
				return runtime.Int(0)
			}
			return runtime.Int(floorMod(li, ri))
		case "**":
			if ri >= 0 {
				return runtime.Int(intPow(li, ri))
			}
			return runtime.Float(math.Pow(float64(li), float64(ri)))
		}
		return runtime.None
	}

	lf, _ := runtime.ToFloat(l)
	rf, _ := runtime.ToFloat(r)
	switch op {
	case "+":
		return runtime.Float(lf + rf)
	case "-":
		return runtime.Float(lf - rf)
	case "*":
		return runtime.Float(lf * rf)
	case "/":
		if rf == 0 {
			return runtime.Int(0)
		}
		return runtime.Float(lf / rf)
	case "//":
		if rf == 0 {
			return runtime.Int(0)
		}
		return runtime.Float(math.Floor(lf / rf))
	case "%":
		if rf == 0 {
			return runtime.Int(0)
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return runtime.Float(m)
	case "**":
		return runtime.Float(math.Pow(lf, rf))
	}
	return runtime.None
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// maxSequenceLen caps sequences built by repetition and range().
const maxSequenceLen = 1 << 20

// repeatFits reports whether n copies of a size-item sequence stay within
// maxSequenceLen. It divides instead of multiplying so huge counts cannot
// overflow.
func repeatFits(size int, n runtime.Int) bool {
	if size == 0 {
		return true
	}
	return int64(n) <= maxSequenceLen/int64(size)
}

// repeat implements str * int and list * int. Results past maxSequenceLen
// are None.
func repeat(seq, count runtime.Value) (runtime.Value, bool) {
	n, ok := count.(runtime.Int)
	if !ok {
		return nil, false
	}
	if n < 0 {
		n = 0
	}
	switch s := seq.(type) {
	case runtime.Str:
		if !repeatFits(len(s), n) {
			return runtime.None, true
		}
		if s == "" {
			return s, true
		}
		return runtime.Str(strings.Repeat(string(s), int(n))), true
	case *runtime.List:
		if !repeatFits(len(s.Elems), n) {
			return runtime.None, true
		}
		if len(s.Elems) == 0 {
			return runtime.NewList(), true
		}
		elems := make([]runtime.Value, 0, len(s.Elems)*int(n))
		for range int(n) {
			elems = append(elems, s.Elems...)
		}
		return runtime.NewList(elems...), true
	}
	return nil, false
}

func unaryOp(op string, v runtime.Value) runtime.Value {
	switch v := v.(type) {
	case runtime.Int:
		if op == "-" {
			return -v
		}
		return v
	case runtime.Float:
		if op == "-" {
			return -v
		}
		return v
	case runtime.Bool:
		n, _ := intOperand(v)
		if op == "-" {
			n = -n
		}
		return runtime.Int(n)
	}
	return runtime.None
}

// compareOp evaluates one link of a comparison chain. Ordering between
// unordered kinds is false.
func compareOp(op string, l, r runtime.Value) bool {
	switch op {
	case "==":
		return runtime.Equal(l, r)
	case "!=":
		return !runtime.Equal(l, r)
	case "is":
		return runtime.Identical(l, r)
	case "is not":
		return !runtime.Identical(l, r)
	case "in":
		return contains(r, l)
	case "not in":
		return !contains(r, l)
	}
	cmp, ok := runtime.Compare(l, r)
	if !ok {
		return false
	}
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func contains(container, item runtime.Value) bool {
	switch c := container.(type) {
	case *runtime.List:
		for _, e := range c.Elems {
			if runtime.Equal(e, item) {
				return true
			}
		}
	case runtime.Str:
		if s, ok := item.(runtime.Str); ok {
			return strings.Contains(string(c), string(s))
		}
	}
	return false
}

// sliceBounds resolves slice operands against a sequence of length n the way
// list slicing does, clamping out-of-range bounds.
func sliceBounds(n int, low, high, step runtime.Value) (start, stop, stride int, ok bool) {
	stride = 1
	if step != nil && step != runtime.None {
		s, ok := intOperand(step)
		if !ok || s == 0 {
			return 0, 0, 0, false
		}
		stride = int(s)
	}
	if stride > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}
	clamp := func(v runtime.Value) (int, bool) {
		i, ok := intOperand(v)
		if !ok {
			return 0, false
		}
		idx := int(i)
		if idx < 0 {
			idx += n
			if idx < 0 {
				if stride < 0 {
					return -1, true
				}
				return 0, true
			}
		} else if idx >= n {
			if stride < 0 {
				return n - 1, true
			}
			return n, true
		}
		return idx, true
	}
	if low != nil && low != runtime.None {
		if start, ok = clamp(low); !ok {
			return 0, 0, 0, false
		}
	}
	if high != nil && high != runtime.None {
		if stop, ok = clamp(high); !ok {
			return 0, 0, 0, false
		}
	}
	return start, stop, stride, true
}

func sliceIndexes(start, stop, stride int) []int {
	var out []int
	if stride > 0 {
		for i := start; i < stop; i += stride {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += stride {
			out = append(out, i)
		}
	}
	return out
}
