package enginebench

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/mwiater/enginebench/internal/bench"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	engineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Width(12)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// renderSummary prints the per-engine mean latency, speedup over the
// reference and parity verdict.
func renderSummary(out io.Writer, report *bench.Report) {
	if report == nil || len(report.Engines) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", ruleWidth(out))))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("inputs=%d batch=%d seq=%d device=%s",
		report.NbInputs, report.BatchSize, report.SeqLen, report.Device)))
	b.WriteString("\n")

	reference := report.Engines[0]
	for _, e := range report.Engines {
		line := engineStyle.Render(e.Engine) + " " + color.GreenString("%8.3f ms", e.Timings.Mean)
		if e.Parity == nil {
			line += " " + color.CyanString("reference")
		} else {
			speedup := 0.0
			if e.Timings.Mean > 0 {
				speedup = reference.Timings.Mean / e.Timings.Mean
			}
			verdict := color.GreenString("PASS")
			if !e.Parity.Pass {
				verdict = color.RedString("FAIL")
			}
			line += fmt.Sprintf(" %s  mean diff %.3g  max diff %.3g  %s",
				color.YellowString("x%.2f", speedup), e.Parity.MeanAbsDiff, e.Parity.MaxAbsDiff, verdict)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprint(out, b.String())
}

// ruleWidth is the terminal width when out is a terminal, capped at 80 columns.
func ruleWidth(out io.Writer) int {
	const fallback = 60
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return min(width, 80)
}
