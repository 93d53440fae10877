// Package runtime holds the value model and call frames shared by the
// interpreter and the trace recorder.
package runtime

import "math"

// Kind identifies the runtime type of a Value.
type Kind int

const (
	NoneKind Kind = iota
	IntKind
	FloatKind
	StrKind
	BoolKind
	ListKind
)

func (k Kind) String() string {
	switch k {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StrKind:
		return "str"
	case BoolKind:
		return "bool"
	case ListKind:
		return "list"
	default:
		return "NoneType"
	}
}

// Value is any runtime value. Scalars are immutable Go values; *List is the
// only reference type, so two names holding the same *List alias each other.
type Value interface {
	Kind() Kind
}

type Int int64

type Float float64

type Str string

type Bool bool

type NoneValue struct{}

// None is the single None value.
var None Value = NoneValue{}

// List is an ordered, mutable, heterogeneous sequence with reference identity.
type List struct {
	Elems []Value
}

// NewList returns a list holding elems.
func NewList(elems ...Value) *List {
	if elems == nil {
		elems = []Value{}
	}
	return &List{Elems: elems}
}

func (Int) Kind() Kind       { return IntKind }
func (Float) Kind() Kind     { return FloatKind }
func (Str) Kind() Kind       { return StrKind }
func (Bool) Kind() Kind      { return BoolKind }
func (NoneValue) Kind() Kind { return NoneKind }
func (*List) Kind() Kind     { return ListKind }

// Normalize resolves a possibly negative index against the current length.
func (l *List) Normalize(i int64) (int, bool) {
	n := int64(len(l.Elems))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return int(i), true
}

// Copy returns a shallow copy with a new identity.
func (l *List) Copy() *List {
	elems := make([]Value, len(l.Elems))
	copy(elems, l.Elems)
	return &List{Elems: elems}
}

// TypeName is the type tag shown next to a variable.
func TypeName(v Value) string {
	if v == nil {
		return NoneKind.String()
	}
	return v.Kind().String()
}

// IsNumber reports whether v takes part in arithmetic (bools count as 0/1).
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float, Bool:
		return true
	}
	return false
}

// ToFloat converts a numeric value.
func ToFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToInt converts an Int or Bool; Floats truncate toward zero.
func ToInt(v Value) (int64, bool) {
	switch v := v.(type) {
	case Int:
		return int64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	case Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// Truthy applies the usual truth rules: zero, empty and None are false.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, NoneValue:
		return false
	case Bool:
		return bool(v)
	case Int:
		return v != 0
	case Float:
		return v != 0
	case Str:
		return v != ""
	case *List:
		return len(v.Elems) > 0
	}
	return false
}

// listPair is a pair of lists whose comparison is in progress. Meeting the
// same pair again means both lists reach themselves the same way, so the
// pair is taken as equal there.
type listPair struct{ a, b *List }

// Equal compares by value; lists compare element-wise. Self-containing
// lists terminate.
func Equal(a, b Value) bool { return equal(a, b, nil) }

func equal(a, b Value, active map[listPair]bool) bool {
	if IsNumber(a) && IsNumber(b) {
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				return ai == bi
			}
		}
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		return af == bf
	}
	switch a := a.(type) {
	case Str:
		b, ok := b.(Str)
		return ok && a == b
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case *List:
		b, ok := b.(*List)
		if !ok {
			return false
		}
		if a == b {
			return true
		}
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		p := listPair{a, b}
		if active[p] {
			return true
		}
		if active == nil {
			active = make(map[listPair]bool)
		}
		active[p] = true
		defer delete(active, p)
		for i := range a.Elems {
			if !equal(a.Elems[i], b.Elems[i], active) {
				return false
			}
		}
		return true
	}
	return false
}

// Identical implements `is`: identity for lists, equality of kind and value
// for scalars.
func Identical(a, b Value) bool {
	if al, ok := a.(*List); ok {
		bl, ok := b.(*List)
		return ok && al == bl
	}
	return a.Kind() == b.Kind() && Equal(a, b)
}

// Compare orders two values. ok is false when the kinds are not ordered
// against each other.
func Compare(a, b Value) (cmp int, ok bool) { return compare(a, b, nil) }

func compare(a, b Value, active map[listPair]bool) (int, bool) {
	if IsNumber(a) && IsNumber(b) {
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				switch {
				case ai < bi:
					return -1, true
				case ai > bi:
					return 1, true
				}
				return 0, true
			}
		}
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch a := a.(type) {
	case Str:
		b, ok := b.(Str)
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	case *List:
		b, ok := b.(*List)
		if !ok {
			return 0, false
		}
		p := listPair{a, b}
		if active[p] {
			return 0, true
		}
		if active == nil {
			active = make(map[listPair]bool)
		}
		active[p] = true
		defer delete(active, p)
		for i := 0; i < len(a.Elems) && i < len(b.Elems); i++ {
			if equal(a.Elems[i], b.Elems[i], active) {
				continue
			}
			return compare(a.Elems[i], b.Elems[i], active)
		}
		return sign(int64(len(a.Elems)) - int64(len(b.Elems))), true
	}
	return 0, false
}

func sign(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}
