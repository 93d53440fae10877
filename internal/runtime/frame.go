package runtime

// Frame is one activation: an insertion-ordered set of bindings plus the
// names written since the last recorded step.
type Frame struct {
	Name    string
	order   []string
	vars    map[string]Value
	changed map[string]bool
	globals map[string]bool
}

// NewFrame returns an empty frame labelled name.
func NewFrame(name string) *Frame {
	return &Frame{
		Name:    name,
		vars:    make(map[string]Value),
		changed: make(map[string]bool),
		globals: make(map[string]bool),
	}
}

// Get looks up a binding in this frame only.
func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Set binds name and marks it changed for the next step.
func (f *Frame) Set(name string, v Value) {
	if _, ok := f.vars[name]; !ok {
		f.order = append(f.order, name)
	}
	f.vars[name] = v
	f.changed[name] = true
}

// Touch marks an existing binding changed without rebinding it, for
// in-place list mutation.
func (f *Frame) Touch(name string) {
	if _, ok := f.vars[name]; ok {
		f.changed[name] = true
	}
}

// Names returns bound names in first-assignment order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Changed reports whether name was written since the last ClearChanged.
func (f *Frame) Changed(name string) bool { return f.changed[name] }

// ClearChanged resets the changed set.
func (f *Frame) ClearChanged() { clear(f.changed) }

// DeclareGlobal routes later writes of name to the module frame.
func (f *Frame) DeclareGlobal(name string) { f.globals[name] = true }

// IsGlobal reports whether name was declared global in this frame.
func (f *Frame) IsGlobal(name string) bool { return f.globals[name] }

// Env is the stack of frames for one run. Frame 0 is the module frame and is
// never popped.
type Env struct {
	frames []*Frame
}

// NewEnv returns an environment holding only the module frame.
func NewEnv() *Env {
	return &Env{frames: []*Frame{NewFrame("<module>")}}
}

// Module returns the module frame.
func (e *Env) Module() *Frame { return e.frames[0] }

// Live returns the innermost frame.
func (e *Env) Live() *Frame { return e.frames[len(e.frames)-1] }

// Push enters a new function frame.
func (e *Env) Push(name string) *Frame {
	f := NewFrame(name)
	e.frames = append(e.frames, f)
	return f
}

// Pop leaves the innermost function frame.
func (e *Env) Pop() {
	if len(e.frames) > 1 {
		e.frames = e.frames[:len(e.frames)-1]
	}
}

// Depth returns the number of active function frames.
func (e *Env) Depth() int { return len(e.frames) - 1 }

// Get resolves name in the live frame, then the module frame.
func (e *Env) Get(name string) (Value, bool) {
	live := e.Live()
	if !live.IsGlobal(name) {
		if v, ok := live.Get(name); ok {
			return v, true
		}
	}
	return e.Module().Get(name)
}

// Set writes to the live frame unless name was declared global there.
func (e *Env) Set(name string, v Value) {
	live := e.Live()
	if live.IsGlobal(name) {
		e.Module().Set(name, v)
		return
	}
	live.Set(name, v)
}

// Touch marks name changed in the frame it resolves to.
func (e *Env) Touch(name string) {
	live := e.Live()
	if !live.IsGlobal(name) {
		if _, ok := live.Get(name); ok {
			live.Touch(name)
			return
		}
	}
	e.Module().Touch(name)
}

// CallStack lists active function names, innermost last.
func (e *Env) CallStack() []string {
	out := make([]string, 0, len(e.frames)-1)
	for _, f := range e.frames[1:] {
		out = append(out, f.Name)
	}
	return out
}

// ClearChanged resets the changed set of every frame.
func (e *Env) ClearChanged() {
	for _, f := range e.frames {
		f.ClearChanged()
	}
}
