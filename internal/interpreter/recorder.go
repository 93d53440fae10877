package interpreter

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/itsmostafa/steptrace/internal/runtime"
	"github.com/itsmostafa/steptrace/internal/trace"
)

// pendingHighlight waits for the next step. The list is resolved to a
// container name only when the step is built.
type pendingHighlight struct {
	list  *runtime.List
	index int
	color trace.Color
	label string
}

type recorder struct {
	env     *runtime.Env
	out     *outputBuffer
	sink    func(trace.Step) bool
	max     int
	count   int
	pending []pendingHighlight
	stopped bool
	log     zerolog.Logger
}

func (r *recorder) highlight(l *runtime.List, index int, color trace.Color, label string) {
	r.pending = append(r.pending, pendingHighlight{list: l, index: index, color: color, label: label})
}

// record emits one step for line. It fails with errStepLimit once max steps
// were recorded and with errStopped once the sink declined a step.
func (r *recorder) record(line int, annotation string) error {
	if r.stopped {
		return errStopped
	}
	if r.count >= r.max {
		return errStepLimit
	}

	step := trace.Step{
		Line:       line,
		Variables:  r.variables(),
		CallStack:  r.env.CallStack(),
		Containers: r.containers(),
		Annotation: annotation,
		Output:     r.out.Snapshot(),
	}
	r.pending = nil
	r.env.ClearChanged()
	r.count++

	r.log.Trace().
		Int("step", r.count).
		Int("line", line).
		Int("depth", len(step.CallStack)).
		Str("annotation", annotation).
		Msg("step")

	if !r.sink(step) {
		r.stopped = true
		return errStopped
	}
	return nil
}

func (r *recorder) variables() []trace.Variable {
	live := r.env.Live()
	names := live.Names()
	vars := make([]trace.Variable, 0, len(names))
	for _, name := range names {
		v, _ := live.Get(name)
		vars = append(vars, trace.Variable{
			Name:    name,
			Value:   runtime.Repr(v),
			Type:    runtime.TypeName(v),
			Changed: live.Changed(name),
		})
	}
	return vars
}

// containers groups the visible list bindings by identity: live frame
// first, then module bindings the live frame does not shadow.
func (r *recorder) containers() []trace.Container {
	var order []*runtime.List
	names := make(map[*runtime.List][]string)

	collect := func(f *runtime.Frame, skip func(string) bool) {
		for _, name := range f.Names() {
			if skip(name) {
				continue
			}
			v, _ := f.Get(name)
			l, ok := v.(*runtime.List)
			if !ok {
				continue
			}
			if _, seen := names[l]; !seen {
				order = append(order, l)
			}
			names[l] = append(names[l], name)
		}
	}

	live, module := r.env.Live(), r.env.Module()
	collect(live, func(string) bool { return false })
	if live != module {
		collect(module, func(name string) bool {
			if live.IsGlobal(name) {
				return false
			}
			_, shadowed := live.Get(name)
			return shadowed
		})
	}

	out := make([]trace.Container, 0, len(order))
	for _, l := range order {
		c := trace.Container{
			Name:     strings.Join(names[l], " = "),
			Names:    names[l],
			Elements: make([]string, len(l.Elems)),
		}
		for i, e := range l.Elems {
			c.Elements[i] = runtime.Repr(e)
		}
		for _, h := range r.pending {
			if h.list != l || h.index < 0 || h.index >= len(l.Elems) {
				continue
			}
			c.Highlights = append(c.Highlights, trace.Highlight{
				Container: c.Name,
				Index:     h.index,
				Color:     h.color,
				Label:     h.label,
			})
		}
		out = append(out, c)
	}
	return out
}
