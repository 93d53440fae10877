package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/steptrace/internal/config"
	"github.com/itsmostafa/steptrace/internal/render"
	"github.com/itsmostafa/steptrace/internal/runner"
	"github.com/itsmostafa/steptrace/internal/session"
)

var showFrame int

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Continue a program that waits for input across invocations",
	Long: `A session remembers a program and the values given to its input() calls.
Every "session input" appends one value and replays the program from the start.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start FILE",
	Short: "Start a session for a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rp, err := runner.LoadReplayer(sessionRunner(), args[0], nil)
		if err != nil {
			return err
		}
		sm := session.NewStateManager(cfg.Session.Dir)
		state, err := sm.Start(args[0])
		if err != nil {
			return err
		}
		res, err := rp.Run(cmd.Context())
		if err != nil {
			return err
		}
		if err := sm.SaveTrace(res); err != nil {
			return err
		}
		logger.Info().Str("session", state.SessionID).Str("file", state.SourcePath).Msg("session started")

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Session %s\n", state.SessionID)
		return reportSession(out, rp, res, 0)
	},
}

var sessionInputCmd = &cobra.Command{
	Use:   "input VALUE",
	Short: "Give the waiting input() call a value and replay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sm := session.NewStateManager(cfg.Session.Dir)
		state, err := sm.Load()
		if err != nil {
			return err
		}
		rp, err := runner.LoadReplayer(sessionRunner(), state.SourcePath, state.Inputs)
		if err != nil {
			return err
		}
		before, err := rp.Run(cmd.Context())
		if err != nil {
			return err
		}
		res, err := rp.Provide(cmd.Context(), args[0])
		if errors.Is(err, runner.ErrNotAwaitingInput) {
			return fmt.Errorf("session %s: %w", state.SessionID, err)
		}
		if err != nil {
			return err
		}
		if err := sm.Record(state, args[0], res); err != nil {
			return err
		}
		logger.Debug().Str("session", state.SessionID).Int("inputs", len(state.Inputs)).Msg("input recorded")

		// The waiting step of the previous run is replaced by the new steps.
		return reportSession(cmd.OutOrStdout(), rp, res, max(len(before.Steps)-1, 0))
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current session trace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sm := session.NewStateManager(cfg.Session.Dir)
		state, err := sm.Load()
		if err != nil {
			return err
		}
		rp, err := runner.LoadReplayer(sessionRunner(), state.SourcePath, state.Inputs)
		if err != nil {
			return err
		}
		res, err := sm.LoadTrace()
		if err != nil {
			return err
		}
		if res == nil {
			if res, err = rp.Run(cmd.Context()); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if showFrame > 0 {
			if showFrame > len(res.Steps) {
				return fmt.Errorf("frame %d out of range: the trace has %d steps", showFrame, len(res.Steps))
			}
			step := res.Steps[showFrame-1]
			if cfg.Output.Format == config.FormatJSON {
				return render.WriteJSON(out, step)
			}
			render.FormatStep(out, showFrame-1, len(res.Steps), step, strings.Split(rp.Source(), "\n"))
			return nil
		}
		if cfg.Output.Format == config.FormatJSON {
			return render.WriteJSON(out, res)
		}
		render.FormatHeader(out, state.SourcePath, state.Inputs)
		render.FormatTrace(out, res, rp.Source(), cfg.Output.ShowOutput)
		if res.AwaitingInput {
			render.FormatAwaitingInput(out, res.Prompt(), "Continue with: steptrace session input VALUE")
		}
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.NewStateManager(cfg.Session.Dir).Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session discarded")
		return nil
	},
}

func sessionRunner() runner.Interpreter {
	return runner.Interpreter{Options: cfg.Options(&logger)}
}

// reportSession prints the steps from index from onwards and the summary.
func reportSession(out io.Writer, rp *runner.Replayer, res *runner.Result, from int) error {
	if cfg.Output.Format == config.FormatJSON {
		return render.WriteJSON(out, res)
	}
	lines := strings.Split(rp.Source(), "\n")
	for i := from; i < len(res.Steps); i++ {
		render.FormatStep(out, i, len(res.Steps), res.Steps[i], lines)
	}
	if cfg.Output.ShowOutput {
		render.FormatOutput(out, res.Output)
	}
	fmt.Fprintln(out)
	render.FormatSummary(out, res)
	if res.AwaitingInput {
		render.FormatAwaitingInput(out, res.Prompt(), "Continue with: steptrace session input VALUE")
	}
	return nil
}

func init() {
	sessionShowCmd.Flags().IntVar(&showFrame, "frame", 0, "Show only step N (1-based)")

	sessionCmd.AddCommand(sessionStartCmd, sessionInputCmd, sessionShowCmd, sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}
