package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
)

// Renderer handles TUI rendering
type Renderer struct {
	style *StyleConfig
}

// StyleConfig defines visual styles
type StyleConfig struct {
	TitleColor    lipgloss.Color
	SubtleColor   lipgloss.Color
	ErrorColor    lipgloss.Color
	SuccessColor  lipgloss.Color
	WarningColor  lipgloss.Color
	SelectedColor lipgloss.Color
	BorderColor   lipgloss.Color
}

// DefaultStyleConfig returns the default style configuration
func DefaultStyleConfig() *StyleConfig {
	return &StyleConfig{
		TitleColor:    lipgloss.Color("10"),  // Green
		SubtleColor:   lipgloss.Color("241"), // Grey
		ErrorColor:    lipgloss.Color("9"),   // Red
		SuccessColor:  lipgloss.Color("10"),  // Green
		WarningColor:  lipgloss.Color("11"),  // Yellow
		SelectedColor: lipgloss.Color("12"),  // Blue
		BorderColor:   lipgloss.Color("8"),   // Dark grey
	}
}

// NewRenderer creates a TUI renderer
func NewRenderer(style *StyleConfig) *Renderer {
	if style == nil {
		style = DefaultStyleConfig()
	}
	return &Renderer{style: style}
}

// Render renders the full view. The list scrolls to keep the cursor row
// on screen when the window height is known.
func (r *Renderer) Render(mdl *model) string {
	header := r.renderHeader(mdl)
	footer := r.renderFooter(mdl)
	lines, cursorLine := r.renderRows(mdl)

	if mdl.height > 0 {
		avail := mdl.height - countLines(header) - countLines(footer)
		lines = window(lines, cursorLine, avail)
		for len(lines) < avail {
			lines = append(lines, "")
		}
	}

	return header + strings.Join(lines, "\n") + "\n" + footer
}

// window returns at most size lines of lines, containing index focus.
func window(lines []string, focus, size int) []string {
	if size <= 0 {
		return nil
	}
	if len(lines) <= size {
		return lines
	}
	start := 0
	if focus >= size {
		start = focus - size + 1
	}
	return lines[start : start+size]
}

func (r *Renderer) renderHeader(mdl *model) string {
	title := lipgloss.NewStyle().
		Foreground(r.style.TitleColor).
		Bold(true).
		Render("cellguard review")

	blocking := []string{"critical"}
	if mdl.policy.BlockHighRisk {
		blocking = append(blocking, "high")
	}
	if mdl.policy.BlockMediumRisk {
		blocking = append(blocking, "medium")
	}
	policy := lipgloss.NewStyle().
		Foreground(r.style.SubtleColor).
		Render("blocking: " + strings.Join(blocking, ", "))

	border := lipgloss.NewStyle().
		Foreground(r.style.BorderColor).
		Render(strings.Repeat("─", 62))

	return title + "  " + policy + "\n" + border + "\n"
}

// renderRows returns the list lines and the line index of the cursor row.
func (r *Renderer) renderRows(mdl *model) ([]string, int) {
	if len(mdl.rows) == 0 {
		return []string{lipgloss.NewStyle().
			Foreground(r.style.SubtleColor).
			Render("  no code cells")}, 0
	}

	var lines []string
	cursorLine := 0
	lastPath := ""
	for i, rw := range mdl.rows {
		if i == 0 || rw.path != lastPath {
			style := lipgloss.NewStyle().Foreground(r.style.SelectedColor).Bold(true)
			lines = append(lines, "  "+style.Render(rw.path))
			lastPath = rw.path
		}

		cursor := " "
		if i == mdl.cursor {
			cursor = ">"
			cursorLine = len(lines)
		}

		label := rw.cell.Cell.Label()
		if i == mdl.cursor {
			label = lipgloss.NewStyle().Bold(true).Render(label)
		}
		line := fmt.Sprintf("  %s [%s] %s", cursor, r.renderVerdict(rw.cell), label)
		if n := len(rw.cell.Result.Issues); n > 0 {
			line += lipgloss.NewStyle().Foreground(r.style.SubtleColor).
				Render(fmt.Sprintf("  %d issue(s)", n))
		}
		lines = append(lines, line)

		if mdl.expanded[i] {
			lines = append(lines, r.renderDetails(rw.cell)...)
		}
	}
	return lines, cursorLine
}

func (r *Renderer) renderVerdict(c report.CellResult) string {
	verdict := report.Verdict(c)
	color := r.style.WarningColor
	switch verdict {
	case "BLOCKED":
		color = r.style.ErrorColor
	case "OK":
		color = r.style.SuccessColor
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%-7s", verdict))
}

func (r *Renderer) renderDetails(c report.CellResult) []string {
	subtle := lipgloss.NewStyle().Foreground(r.style.SubtleColor)

	var lines []string
	if c.Result.Blocked {
		lines = append(lines, "       "+subtle.Render("reason: "+c.Result.BlockReason))
	}
	if len(c.Result.Issues) == 0 {
		lines = append(lines, "       "+subtle.Render("no issues"))
	}
	for _, f := range c.Result.Issues {
		lines = append(lines, fmt.Sprintf("       %s %s line %d: %s",
			report.LevelStyle(f.Level).Render(fmt.Sprintf("%-8s", f.Level)),
			f.RuleID, c.Cell.FileLine(f.Line), f.Description))
		if f.Code != "" {
			lines = append(lines, "         "+subtle.Render("code: "+f.Code))
		}
		lines = append(lines, "         "+subtle.Render("fix:  "+f.Suggestion))
	}
	return lines
}

func (r *Renderer) renderFooter(mdl *model) string {
	blocked := 0
	counts := make(map[finding.RiskLevel]int)
	for _, rw := range mdl.rows {
		if rw.cell.Result.Blocked {
			blocked++
		}
		for level, n := range finding.Counts(rw.cell.Result.Issues) {
			counts[level] += n
		}
	}

	summary := fmt.Sprintf("%d cell(s), %d blocked", len(mdl.rows), blocked)
	for _, level := range finding.Levels {
		if n := counts[level]; n > 0 {
			summary += fmt.Sprintf(", %d %s", n, strings.ToLower(level.String()))
		}
	}

	statusBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Render(summary + "  " + mdl.keys.Help().View())

	return statusBar + "\n"
}

// RenderHelp renders the key binding list.
func (r *Renderer) RenderHelp(mdl *model) string {
	title := lipgloss.NewStyle().
		Foreground(r.style.TitleColor).
		Bold(true).
		Render("Keys")
	help := lipgloss.NewStyle().
		Foreground(r.style.SubtleColor).
		Render(mdl.keys.Help().String())
	return title + "\n\n" + help + "\n"
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	count := strings.Count(s, "\n")
	if s[len(s)-1] != '\n' {
		count++
	}
	return count
}
