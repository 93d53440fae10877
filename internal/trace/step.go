// Package trace defines the snapshots an interpreter run produces and a
// cursor for stepping through them.
package trace

// Color tags what a highlight means to the visualizer.
type Color string

const (
	ColorCompare Color = "compare"
	ColorSwap    Color = "swap"
	ColorWrite   Color = "write"
	ColorRead    Color = "read"
)

// Highlight marks one container index inspected or changed by the statement
// that produced the step.
type Highlight struct {
	Container string `json:"container"`
	Index     int    `json:"index"`
	Color     Color  `json:"color"`
	Label     string `json:"label,omitempty"`
}

// Variable is one binding of the live frame.
type Variable struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	Changed bool   `json:"changed"`
}

// Container is a list reachable from the live or module frame. Names holds
// every variable bound to it; Name joins them with " = ".
type Container struct {
	Name       string      `json:"name"`
	Names      []string    `json:"names"`
	Elements   []string    `json:"elements"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Step is the state after one executed statement.
type Step struct {
	Line       int         `json:"line"`
	Variables  []Variable  `json:"variables"`
	CallStack  []string    `json:"callStack"`
	Containers []Container `json:"containers"`
	Annotation string      `json:"annotation"`
	Output     []string    `json:"output,omitempty"`
}

// Variable looks up a variable by name.
func (s Step) Variable(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Container finds the container bound to name.
func (s Step) Container(name string) (Container, bool) {
	for _, c := range s.Containers {
		for _, n := range c.Names {
			if n == name {
				return c, true
			}
		}
	}
	return Container{}, false
}

// Highlights returns every highlight attached to the step.
func (s Step) Highlights() []Highlight {
	var out []Highlight
	for _, c := range s.Containers {
		out = append(out, c.Highlights...)
	}
	return out
}
