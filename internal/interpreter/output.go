package interpreter

import (
	"strings"

	"github.com/itsmostafa/steptrace/internal/runtime"
)

// outputBuffer collects program output as lines. Text not yet ended by a
// newline stays on a pending last line, which is where an input prompt
// waits.
type outputBuffer struct {
	lines   []string
	partial strings.Builder
}

func (o *outputBuffer) Write(s string) {
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			o.partial.WriteString(s)
			return
		}
		o.partial.WriteString(s[:i])
		o.lines = append(o.lines, o.partial.String())
		o.partial.Reset()
		s = s[i+1:]
	}
}

// Lines returns completed lines plus a non-empty pending line.
func (o *outputBuffer) Lines() []string {
	out := make([]string, 0, len(o.lines)+1)
	out = append(out, o.lines...)
	if o.partial.Len() > 0 {
		out = append(out, o.partial.String())
	}
	return out
}

// Snapshot is Lines, or nil when nothing was written.
func (o *outputBuffer) Snapshot() []string {
	if len(o.lines) == 0 && o.partial.Len() == 0 {
		return nil
	}
	return o.Lines()
}

// readInput serves input(prompt). A consumed value is echoed after the
// prompt. With no value left the prompt stays pending, a waiting step is
// recorded at the requesting line and the run unwinds.
func (in *interp) readInput(prompt string) (runtime.Value, error) {
	if in.inputPos < len(in.inputs) {
		v := in.inputs[in.inputPos]
		in.inputPos++
		in.out.Write(prompt + v + "\n")
		in.log.Debug().Int("line", in.line).Str("value", v).Msg("input consumed")
		return runtime.Str(v), nil
	}
	in.out.Write(prompt)
	in.pendingPrompt = prompt
	in.log.Debug().Int("line", in.line).Msg("input exhausted, suspending")
	if err := in.rec.record(in.line, "Waiting for input"); err != nil {
		return nil, err
	}
	return nil, errAwaitingInput
}
