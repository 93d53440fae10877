// Package interpreter executes programs written in a small Python-like
// subset and records a step for every executed statement.
//
// A run is a pure function of the source text and the list of input values:
// there is no process-wide state, and replaying with a longer input list
// reproduces the shorter run's steps as a prefix.
package interpreter

import (
	"errors"
	"iter"

	"github.com/rs/zerolog"

	"github.com/itsmostafa/steptrace/internal/runtime"
	"github.com/itsmostafa/steptrace/internal/syntax"
	"github.com/itsmostafa/steptrace/internal/trace"
)

// Options bound a run.
type Options struct {
	MaxSteps          int             // total recorded steps before the run is truncated
	MaxLoopIterations int             // iterations of a single loop statement
	MaxCallDepth      int             // nested user function frames
	Logger            *zerolog.Logger // nil disables logging
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		MaxSteps:          500,
		MaxLoopIterations: 10000,
		MaxCallDepth:      200,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxSteps <= 0 {
		o.MaxSteps = def.MaxSteps
	}
	if o.MaxLoopIterations <= 0 {
		o.MaxLoopIterations = def.MaxLoopIterations
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = def.MaxCallDepth
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Result is the outcome of one run.
type Result struct {
	Steps         []trace.Step `json:"steps"`
	Output        []string     `json:"output"`
	AwaitingInput bool         `json:"awaitingInput"`
	InputPrompt   string       `json:"inputPrompt,omitempty"` // prompt of the input() call the run stopped at
	Truncated     bool         `json:"truncated"`
}

// Interpret runs source with the default options.
func Interpret(source string, inputs []string) Result {
	return Run(source, inputs, DefaultOptions())
}

// Run executes source, consuming inputs in order as input() is called. It
// never panics: an internal fault yields an empty Result.
func Run(source string, inputs []string, opts Options) (res Result) {
	opts = opts.withDefaults()
	defer func() {
		if r := recover(); r != nil {
			opts.Logger.Error().Interface("panic", r).Msg("interpreter fault, returning empty result")
			res = Result{Steps: []trace.Step{}, Output: []string{}}
		}
	}()

	steps := []trace.Step{}
	in := newInterp(source, inputs, opts, func(s trace.Step) bool {
		steps = append(steps, s)
		return true
	})
	status := in.run()
	if status != statusAwaitingInput {
		in.pendingPrompt = ""
	}
	return Result{
		Steps:         steps,
		Output:        in.out.Lines(),
		AwaitingInput: status == statusAwaitingInput,
		InputPrompt:   in.pendingPrompt,
		Truncated:     status == statusTruncated,
	}
}

// Steps returns the run's steps as a lazily produced sequence. Execution
// advances only as far as the consumer pulls, and stops when it stops.
func Steps(source string, inputs []string, opts Options) iter.Seq[trace.Step] {
	return func(yield func(trace.Step) bool) {
		opts := opts.withDefaults()
		defer func() {
			if r := recover(); r != nil {
				opts.Logger.Error().Interface("panic", r).Msg("interpreter fault, ending step sequence")
			}
		}()
		newInterp(source, inputs, opts, yield).run()
	}
}

type runStatus int

const (
	statusDone runStatus = iota
	statusAwaitingInput
	statusTruncated
	statusStopped
)

type interp struct {
	opts   Options
	log    zerolog.Logger
	module *syntax.Module
	funcs  map[string]*syntax.FuncDef
	env    *runtime.Env
	rec    *recorder
	out    *outputBuffer

	inputs   []string
	inputPos int

	line          int    // line of the statement being executed
	lastPrinted   string // text of the most recent print() for its step annotation
	pendingPrompt string // prompt of the input() call the run is suspended at
}

func newInterp(source string, inputs []string, opts Options, sink func(trace.Step) bool) *interp {
	env := runtime.NewEnv()
	out := &outputBuffer{}
	log := opts.Logger.With().Str("component", "interpreter").Logger()
	return &interp{
		opts:   opts,
		log:    log,
		module: syntax.Parse(source),
		funcs:  make(map[string]*syntax.FuncDef),
		env:    env,
		out:    out,
		inputs: inputs,
		rec: &recorder{
			env:  env,
			out:  out,
			sink: sink,
			max:  opts.MaxSteps,
			log:  log,
		},
	}
}

func (in *interp) run() runStatus {
	in.harvest(in.module.Body)
	in.log.Debug().Int("functions", len(in.funcs)).Int("inputs", len(in.inputs)).Msg("run started")

	err := in.execBlock(in.module.Body)
	status := statusDone
	switch {
	case err == nil:
	case errors.Is(err, errAwaitingInput):
		status = statusAwaitingInput
	case errors.Is(err, errStepLimit):
		in.log.Debug().Int("max_steps", in.opts.MaxSteps).Msg("step ceiling reached, trace truncated")
		status = statusTruncated
	case errors.Is(err, errStopped):
		status = statusStopped
	default:
		// return, break or continue at module level end the block they
		// appear in, which here is the program.
		in.log.Debug().Err(err).Msg("control signal at module level")
	}
	in.log.Debug().Int("steps", in.rec.count).Msg("run finished")
	return status
}

// harvest registers every function definition, including nested ones,
// before execution starts. A later definition of a name replaces an earlier.
func (in *interp) harvest(stmts []syntax.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *syntax.FuncDef:
			in.funcs[s.Name] = s
			in.harvest(s.Body)
		case *syntax.If:
			for _, br := range s.Branches {
				in.harvest(br.Body)
			}
			in.harvest(s.Else)
		case *syntax.For:
			in.harvest(s.Body)
		case *syntax.While:
			in.harvest(s.Body)
		}
	}
}
