package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/itsmostafa/steptrace/internal/render"
	"github.com/itsmostafa/steptrace/internal/runner"
)

const historyFile = ".steptrace_history"

const navHelp = `Commands:
  n, <enter>   next step
  p            previous step
  g N          go to step N
  f, l         first / last step
  o            program output so far
  q            quit
When the program waits for input, type the value at the input prompt.`

var interactiveInputs []string

var interactiveCmd = &cobra.Command{
	Use:   "interactive FILE",
	Short: "Step through a trace and answer input() calls as they happen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rp, err := runner.LoadReplayer(runner.Interpreter{Options: cfg.Options(&logger)}, args[0], interactiveInputs)
		if err != nil {
			return err
		}
		nav := &navigator{rp: rp, out: cmd.OutOrStdout(), lines: strings.Split(rp.Source(), "\n")}
		if err := nav.replay(cmd.Context()); err != nil {
			return err
		}

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		histPath := historyPath()
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()

		render.FormatHeader(nav.out, args[0], rp.Inputs())
		fmt.Fprintln(nav.out, navHelp)
		nav.show()
		for {
			prompt := "step> "
			if nav.waiting() {
				prompt = "input " + nav.res.Prompt()
			}
			line, err := ln.Prompt(prompt)
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(nav.out)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read command: %w", err)
			}
			if strings.TrimSpace(line) != "" {
				ln.AppendHistory(line)
			}

			if nav.waiting() {
				if err := nav.provide(cmd.Context(), line); err != nil {
					return err
				}
				continue
			}
			quit, err := nav.command(line)
			if err != nil {
				fmt.Fprintln(nav.out, err)
				continue
			}
			if quit {
				return nil
			}
		}
	},
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

// navigator holds the position of an interactive walk through a trace.
type navigator struct {
	rp    *runner.Replayer
	res   *runner.Result
	pos   int
	out   io.Writer
	lines []string
}

func (n *navigator) replay(ctx context.Context) error {
	res, err := n.rp.Run(ctx)
	if err != nil {
		return err
	}
	n.res = res
	return nil
}

// waiting reports whether the cursor sits on the step that asks for input.
func (n *navigator) waiting() bool {
	return n.res.AwaitingInput && n.pos == len(n.res.Steps)-1
}

func (n *navigator) show() {
	if len(n.res.Steps) == 0 {
		fmt.Fprintln(n.out, "The program recorded no steps.")
		return
	}
	render.FormatStep(n.out, n.pos, len(n.res.Steps), n.res.Steps[n.pos], n.lines)
	if n.pos == len(n.res.Steps)-1 && !n.res.AwaitingInput {
		fmt.Fprintln(n.out)
		render.FormatSummary(n.out, n.res)
	}
}

// provide answers the pending input() call. The cursor stays on the same
// index, which after the replay holds the step that consumed the value.
func (n *navigator) provide(ctx context.Context, value string) error {
	res, err := n.rp.Provide(ctx, value)
	if err != nil {
		return err
	}
	n.res = res
	n.pos = min(n.pos, len(res.Steps)-1)
	n.show()
	return nil
}

// command applies one navigation command and reports whether to quit.
func (n *navigator) command(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	verb := "n"
	if len(fields) > 0 {
		verb = strings.ToLower(fields[0])
	}
	last := len(n.res.Steps) - 1
	switch verb {
	case "q", "quit", "exit":
		return true, nil
	case "n", "next":
		if n.pos >= last {
			return false, errors.New("already at the last step")
		}
		n.pos++
	case "p", "prev":
		if n.pos == 0 {
			return false, errors.New("already at the first step")
		}
		n.pos--
	case "f", "first":
		n.pos = 0
	case "l", "last":
		n.pos = max(last, 0)
	case "g", "goto":
		if len(fields) != 2 {
			return false, errors.New("usage: g N")
		}
		k, err := strconv.Atoi(fields[1])
		if err != nil || k < 1 || k > last+1 {
			return false, fmt.Errorf("step must be between 1 and %d", last+1)
		}
		n.pos = k - 1
	case "o", "output":
		render.FormatOutput(n.out, n.currentOutput())
		return false, nil
	case "h", "help", "?":
		fmt.Fprintln(n.out, navHelp)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (h for help)", verb)
	}
	n.show()
	return false, nil
}

// currentOutput is the program output as of the current step.
func (n *navigator) currentOutput() []string {
	if len(n.res.Steps) == 0 {
		return n.res.Output
	}
	return n.res.Steps[n.pos].Output
}

func init() {
	interactiveCmd.Flags().StringArrayVarP(&interactiveInputs, "input", "i", nil, "Value for the next input() call (repeatable)")
	rootCmd.AddCommand(interactiveCmd)
}
