package runtime

import (
	"reflect"
	"testing"
)

func TestEnvScoping(t *testing.T) {
	env := NewEnv()
	env.Set("x", Int(1))
	env.Set("arr", NewList(Int(1)))

	env.Push("f")
	if v, ok := env.Get("x"); !ok || v != Int(1) {
		t.Fatalf("module binding not visible from function: %v, %v", v, ok)
	}
	env.Set("x", Int(2))
	if v, _ := env.Module().Get("x"); v != Int(1) {
		t.Errorf("local write leaked into module frame: %v", v)
	}
	if v, _ := env.Get("x"); v != Int(2) {
		t.Errorf("local binding should shadow: %v", v)
	}
	env.Pop()

	if v, _ := env.Get("x"); v != Int(1) {
		t.Errorf("module binding after pop = %v", v)
	}
}

func TestEnvGlobalDeclaration(t *testing.T) {
	env := NewEnv()
	env.Set("count", Int(0))
	env.Push("inc")
	env.Live().DeclareGlobal("count")
	env.Set("count", Int(5))
	if _, ok := env.Live().Get("count"); ok {
		t.Error("global write should not bind locally")
	}
	env.Pop()
	if v, _ := env.Get("count"); v != Int(5) {
		t.Errorf("count = %v, want 5", v)
	}
}

func TestFrameOrderAndChanged(t *testing.T) {
	f := NewFrame("<module>")
	f.Set("b", Int(1))
	f.Set("a", Int(2))
	f.Set("b", Int(3))
	if got := f.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Names() = %v", got)
	}
	if !f.Changed("a") || !f.Changed("b") {
		t.Error("both names should be marked changed")
	}
	f.ClearChanged()
	if f.Changed("a") {
		t.Error("ClearChanged should reset marks")
	}
}

func TestCallStack(t *testing.T) {
	env := NewEnv()
	if got := env.CallStack(); len(got) != 0 {
		t.Errorf("module-level call stack = %v", got)
	}
	env.Push("fib")
	env.Push("fib")
	if got := env.CallStack(); !reflect.DeepEqual(got, []string{"fib", "fib"}) {
		t.Errorf("CallStack() = %v", got)
	}
	if env.Depth() != 2 {
		t.Errorf("Depth() = %d", env.Depth())
	}
	env.Pop()
	env.Pop()
	env.Pop()
	if env.Depth() != 0 {
		t.Error("module frame must never be popped")
	}
}
