package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// LevelColors maps risk levels to terminal colours.
var LevelColors = map[finding.RiskLevel]lipgloss.Color{
	finding.LevelCritical: lipgloss.Color("9"),   // Red
	finding.LevelHigh:     lipgloss.Color("208"), // Orange
	finding.LevelMedium:   lipgloss.Color("11"),  // Yellow
	finding.LevelLow:      lipgloss.Color("241"), // Grey
}

// LevelStyle returns the badge style for a risk level.
func LevelStyle(level finding.RiskLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(LevelColors[level]).Bold(true)
}

var (
	pathStyle    = lipgloss.NewStyle().Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Verdict returns the one-word verdict for a cell.
func Verdict(c CellResult) string {
	switch {
	case c.Result.Blocked:
		return "BLOCKED"
	case c.Result.IsSafe:
		return "OK"
	default:
		return "WARN"
	}
}

// WriteText writes a human-readable report. Styling degrades to plain
// text when the output is not a terminal.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	for _, f := range r.Files {
		b.WriteString(pathStyle.Render(f.Path) + "\n")
		if len(f.Cells) == 0 {
			b.WriteString(subtleStyle.Render("  no code cells") + "\n")
		}
		for _, c := range f.Cells {
			verdict := Verdict(c)
			switch verdict {
			case "BLOCKED":
				verdict = blockedStyle.Render(verdict)
			case "OK":
				verdict = passStyle.Render(verdict)
			default:
				verdict = LevelStyle(finding.LevelMedium).Render(verdict)
			}
			fmt.Fprintf(&b, "  %s  %s\n", c.Cell.Label(), verdict)

			for _, issue := range c.Result.Issues {
				fmt.Fprintf(&b, "    %-8s %-10s line %d: %s\n",
					LevelStyle(issue.Level).Render(issue.Level.String()),
					issue.RuleID,
					c.Cell.FileLine(issue.Line),
					issue.Description)
			}
			if c.Result.Blocked {
				fmt.Fprintf(&b, "    %s\n", subtleStyle.Render("reason: "+c.Result.BlockReason))
			}
		}
		b.WriteString("\n")
	}

	s := r.Summary()
	fmt.Fprintf(&b, "%d file(s), %d cell(s), %d blocked", s.Files, s.Cells, s.Blocked)
	if counts := levelCounts(s.Levels); counts != "" {
		b.WriteString(", " + counts)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
