// Package runner drives interactive programs by replay: every time a trace
// stops at input(), the collected value is appended to the input list and
// the program is interpreted again from the start.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/itsmostafa/steptrace/internal/interpreter"
	"github.com/itsmostafa/steptrace/internal/source"
	"github.com/itsmostafa/steptrace/internal/trace"
)

// ErrNotAwaitingInput is returned by Provide when the last run did not stop
// at an input() call.
var ErrNotAwaitingInput = errors.New("program is not waiting for input")

// Result represents the outcome of one replay
type Result struct {
	interpreter.Result

	// Inputs consumed by this replay, in order
	Inputs []string `json:"inputs"`
	// Duration of the run in milliseconds
	DurationMs int `json:"durationMs"`
}

// Prompt returns the prompt of the waiting input() call, which may be empty.
func (r *Result) Prompt() string {
	if !r.AwaitingInput {
		return ""
	}
	return r.InputPrompt
}

// Runner runs a program against a list of inputs.
type Runner interface {
	Run(ctx context.Context, source string, inputs []string) (*Result, error)
}

// Interpreter is the Runner backed by the tree-walking interpreter.
type Interpreter struct {
	Options interpreter.Options
}

// Run interprets source from scratch with inputs.
func (it Interpreter) Run(ctx context.Context, source string, inputs []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res := interpreter.Run(source, inputs, it.Options)
	return &Result{
		Result:     res,
		Inputs:     slices.Clone(inputs),
		DurationMs: int(time.Since(start).Milliseconds()),
	}, nil
}

// Stream returns a lazily filled cursor over the steps of one run.
func (it Interpreter) Stream(source string, inputs []string) *trace.Cursor {
	return trace.NewCursor(interpreter.Steps(source, inputs, it.Options))
}

// Replayer keeps the accumulated inputs of one program and replays it as
// more are provided.
type Replayer struct {
	runner Runner
	source string
	inputs []string
	last   *Result
}

// NewReplayer creates a Replayer for source that starts from inputs.
func NewReplayer(r Runner, source string, inputs []string) *Replayer {
	return &Replayer{runner: r, source: source, inputs: slices.Clone(inputs)}
}

// LoadReplayer reads the program at path, which may be a Markdown document.
func LoadReplayer(r Runner, path string, inputs []string) (*Replayer, error) {
	src, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return NewReplayer(r, src, inputs), nil
}

// Source returns the program text.
func (rp *Replayer) Source() string { return rp.source }

// Inputs returns a copy of the inputs provided so far.
func (rp *Replayer) Inputs() []string { return slices.Clone(rp.inputs) }

// Last returns the most recent result, or nil before the first run.
func (rp *Replayer) Last() *Result { return rp.last }

// Run replays the program with the current inputs.
func (rp *Replayer) Run(ctx context.Context) (*Result, error) {
	res, err := rp.runner.Run(ctx, rp.source, rp.inputs)
	if err != nil {
		return nil, fmt.Errorf("replay with %d inputs: %w", len(rp.inputs), err)
	}
	rp.last = res
	return res, nil
}

// Provide appends value to the inputs and replays. The program must be
// waiting for input; a fresh Replayer is run first if it has not been.
func (rp *Replayer) Provide(ctx context.Context, value string) (*Result, error) {
	if rp.last == nil {
		if _, err := rp.Run(ctx); err != nil {
			return nil, err
		}
	}
	if !rp.last.AwaitingInput {
		return nil, ErrNotAwaitingInput
	}
	rp.inputs = append(rp.inputs, value)
	return rp.Run(ctx)
}

// Reset drops every provided input.
func (rp *Replayer) Reset() {
	rp.inputs = nil
	rp.last = nil
}
