// Package render prints traces for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/steptrace/internal/runner"
	"github.com/itsmostafa/steptrace/internal/trace"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	// stepBannerStyle for the per-step banner
	stepBannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("25")).
			Padding(0, 2)

	// changedStyle marks variables written by the step
	changedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	sourceLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// highlightColors maps each highlight color to a terminal color.
var highlightColors = map[trace.Color]lipgloss.Color{
	trace.ColorCompare: lipgloss.Color("220"),
	trace.ColorSwap:    lipgloss.Color("205"),
	trace.ColorWrite:   lipgloss.Color("42"),
	trace.ColorRead:    lipgloss.Color("81"),
}

func highlightCell(c trace.Color) lipgloss.Style {
	color := highlightColors[c]
	return cellStyle.BorderForeground(color).Foreground(color).Bold(true)
}

func highlightLabel(c trace.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(highlightColors[c])
}

// FormatHeader renders the header with the program path and input count
func FormatHeader(w io.Writer, path string, inputs []string) {
	content := fmt.Sprintf("%s %s\n%s %d",
		dimStyle.Render("Program:"), titleStyle.Render(path),
		dimStyle.Render("Inputs:"), len(inputs),
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatStep renders one step: the banner, the executed source line, the
// annotation, the call stack, the live variables and every container.
// A total of zero means the length of the trace is not known yet.
func FormatStep(w io.Writer, index, total int, s trace.Step, lines []string) {
	banner := fmt.Sprintf(" STEP %d ", index+1)
	if total > 0 {
		banner = fmt.Sprintf(" STEP %d/%d ", index+1, total)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, stepBannerStyle.Render(banner))

	code := ""
	if s.Line >= 1 && s.Line <= len(lines) {
		code = strings.TrimSpace(lines[s.Line-1])
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render(fmt.Sprintf("%4d │", s.Line)), sourceLineStyle.Render(code))
	fmt.Fprintf(w, "     %s\n", titleStyle.Render(s.Annotation))

	if len(s.CallStack) > 0 {
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Stack:"), strings.Join(s.CallStack, " → "))
	}

	if len(s.Variables) > 0 {
		fmt.Fprintln(w, dimStyle.Render("Variables:"))
		width := 0
		for _, v := range s.Variables {
			width = max(width, len(v.Name))
		}
		for _, v := range s.Variables {
			name := fmt.Sprintf("%-*s", width, v.Name)
			value := v.Value
			if v.Changed {
				name = changedStyle.Render(name)
				value = changedStyle.Render(value)
			}
			fmt.Fprintf(w, "  %s = %s %s\n", name, value, dimStyle.Render(v.Type))
		}
	}

	for _, c := range s.Containers {
		FormatContainer(w, c)
	}
}

// FormatContainer renders a list as a row of cells with its highlights.
func FormatContainer(w io.Writer, c trace.Container) {
	fmt.Fprintf(w, "%s\n", dimStyle.Render(c.Name+":"))
	if len(c.Elements) == 0 {
		fmt.Fprintln(w, "  []")
		return
	}

	// The last highlight for an index wins.
	colors := make(map[int]trace.Color, len(c.Highlights))
	for _, h := range c.Highlights {
		colors[h.Index] = h.Color
	}
	cells := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		style := cellStyle
		if color, ok := colors[i]; ok {
			style = highlightCell(color)
		}
		cells[i] = lipgloss.JoinVertical(lipgloss.Center, style.Render(e), dimStyle.Render(fmt.Sprint(i)))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cells...))

	for _, h := range c.Highlights {
		fmt.Fprintf(w, "  %s %s\n", highlightLabel(h.Color).Render(fmt.Sprintf("%-7s", h.Color)), h.Label)
	}
}

// FormatOutput renders the program's printed lines.
func FormatOutput(w io.Writer, output []string) {
	if len(output) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render("Output:"))
	for _, line := range output {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// FormatSummary renders the summary box for a run.
func FormatSummary(w io.Writer, res *runner.Result) {
	var status string
	switch {
	case res.AwaitingInput:
		status = warnStyle.Render("WAITING FOR INPUT")
	case res.Truncated:
		status = errorStyle.Render("TRUNCATED")
	default:
		status = successStyle.Render("DONE")
	}

	line := fmt.Sprintf("%s %d  %s %d  %s %dms  %s",
		dimStyle.Render("Steps:"), len(res.Steps),
		dimStyle.Render("Output lines:"), len(res.Output),
		dimStyle.Render("Duration:"), res.DurationMs,
		status,
	)
	content := titleStyle.Render("Trace Complete") + "\n" + line
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatAwaitingInput tells the user how to continue a suspended run.
func FormatAwaitingInput(w io.Writer, prompt, hint string) {
	msg := "Program is waiting for input"
	if prompt != "" {
		msg += fmt.Sprintf(" (prompt %q)", prompt)
	}
	fmt.Fprintln(w, warnStyle.Render(msg))
	if hint != "" {
		fmt.Fprintln(w, dimStyle.Render(hint))
	}
}

// FormatTrace renders every step followed by the output and the summary.
func FormatTrace(w io.Writer, res *runner.Result, source string, showOutput bool) {
	lines := strings.Split(source, "\n")
	for i, s := range res.Steps {
		FormatStep(w, i, len(res.Steps), s, lines)
	}
	if showOutput {
		FormatOutput(w, res.Output)
	}
	fmt.Fprintln(w)
	FormatSummary(w, res)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
