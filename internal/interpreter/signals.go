package interpreter

import (
	"errors"

	"github.com/itsmostafa/steptrace/internal/runtime"
)

type returnSignal struct {
	value runtime.Value
}

func (r returnSignal) Error() string {
	return "return"
}

type breakSignal struct{}

func (breakSignal) Error() string {
	return "break"
}

type continueSignal struct{}

func (continueSignal) Error() string {
	return "continue"
}

var (
	// errAwaitingInput unwinds the whole run when input() finds no value.
	errAwaitingInput = errors.New("awaiting input")
	// errStepLimit unwinds the whole run once MaxSteps steps are recorded.
	errStepLimit = errors.New("step limit reached")
	// errStopped unwinds the whole run when the step consumer stops pulling.
	errStopped = errors.New("step consumer stopped")
)

// isLoopSignal reports whether err is a break or continue aimed at the
// innermost loop.
func isLoopSignal(err error) (brk, cont bool) {
	var b breakSignal
	var c continueSignal
	return errors.As(err, &b), errors.As(err, &c)
}
