package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// WriteMarkdown writes the report as Markdown, one table per file.
func WriteMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder
	b.WriteString("## cellguard scan\n\n")

	s := r.Summary()
	fmt.Fprintf(&b, "%d file(s), %d cell(s), **%d blocked**", s.Files, s.Cells, s.Blocked)
	if counts := levelCounts(s.Levels); counts != "" {
		b.WriteString(" (" + counts + ")")
	}
	b.WriteString("\n\n")

	for _, f := range r.Files {
		fmt.Fprintf(&b, "### %s\n\n", f.Path)
		if !hasIssues(f) {
			b.WriteString("No issues.\n\n")
			continue
		}
		b.WriteString("| Cell | Verdict | Level | Rule | Line | Description |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, c := range f.Cells {
			for _, issue := range c.Result.Issues {
				fmt.Fprintf(&b, "| %s | %s | %s | `%s` | %d | %s |\n",
					c.Cell.Label(), Verdict(c), issue.Level, issue.RuleID,
					c.Cell.FileLine(issue.Line), escapeCell(issue.Description))
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func hasIssues(f FileResult) bool {
	for _, c := range f.Cells {
		if len(c.Result.Issues) > 0 {
			return true
		}
	}
	return false
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// levelCounts renders "2 critical, 1 high" style summaries.
func levelCounts(counts map[finding.RiskLevel]int) string {
	var parts []string
	for _, level := range finding.Levels {
		if n := counts[level]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(level.String())))
		}
	}
	return strings.Join(parts, ", ")
}
