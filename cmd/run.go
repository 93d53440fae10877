package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/steptrace/internal/config"
	"github.com/itsmostafa/steptrace/internal/render"
	"github.com/itsmostafa/steptrace/internal/runner"
)

var runInputs []string
var runJSON bool
var runFrame int
var runMaxSteps int

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Trace a program",
	Long: `Trace a program and print every step. FILE may be a source file, a Markdown
document with a python code block, or "-" for standard input.

Values for input() calls are taken from -i flags in order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("max-steps") {
			cfg.Limits.MaxSteps = runMaxSteps
		}
		if runJSON {
			cfg.Output.Format = config.FormatJSON
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		it := runner.Interpreter{Options: cfg.Options(&logger)}
		rp, err := runner.LoadReplayer(it, args[0], runInputs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if runFrame > 0 {
			// Only interpret as far as the requested frame.
			cursor := it.Stream(rp.Source(), rp.Inputs())
			defer cursor.Close()
			step, ok := cursor.At(runFrame - 1)
			if !ok {
				return fmt.Errorf("frame %d out of range: the trace has %d steps", runFrame, cursor.Len())
			}
			if cfg.Output.Format == config.FormatJSON {
				return render.WriteJSON(out, step)
			}
			render.FormatStep(out, runFrame-1, 0, step, strings.Split(rp.Source(), "\n"))
			return nil
		}

		res, err := rp.Run(cmd.Context())
		if err != nil {
			return err
		}
		logger.Debug().
			Str("file", args[0]).
			Int("steps", len(res.Steps)).
			Bool("awaiting_input", res.AwaitingInput).
			Bool("truncated", res.Truncated).
			Int("duration_ms", res.DurationMs).
			Msg("trace complete")

		if cfg.Output.Format == config.FormatJSON {
			return render.WriteJSON(out, res)
		}
		render.FormatHeader(out, args[0], runInputs)
		render.FormatTrace(out, res, rp.Source(), cfg.Output.ShowOutput)
		if res.AwaitingInput {
			render.FormatAwaitingInput(out, res.Prompt(), fmt.Sprintf("Re-run with -i VALUE (%d given so far)", len(runInputs)))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringArrayVarP(&runInputs, "input", "i", nil, "Value for the next input() call (repeatable)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Write the trace as JSON")
	runCmd.Flags().IntVar(&runFrame, "frame", 0, "Show only step N (1-based)")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Step ceiling (overrides the config file)")

	rootCmd.AddCommand(runCmd)
}
