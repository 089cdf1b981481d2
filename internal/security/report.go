package security

import (
	"fmt"
	"strings"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// RejectionMessage renders a blocked result as plain text, one section per
// severity, for display to the agent or person who wrote the code. It
// returns "" when the result is not blocked.
func RejectionMessage(r ScanResult) string {
	if !r.Blocked {
		return ""
	}

	var b strings.Builder
	b.WriteString("Code execution blocked by security scan.\n\n")
	fmt.Fprintf(&b, "Reason: %s\n", r.BlockReason)

	for _, level := range finding.Levels {
		group := atLevel(r.Issues, level)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", level, len(group))
		for _, f := range group {
			fmt.Fprintf(&b, "  [%s] line %d: %s\n", f.RuleID, f.Line, f.Description)
			if f.Code != "" {
				fmt.Fprintf(&b, "      code: %s\n", f.Code)
			}
			fmt.Fprintf(&b, "      fix:  %s\n", f.Suggestion)
		}
	}

	b.WriteString("\nRevise the code to remove the issues above and submit it again.\n")
	return b.String()
}

// RejectionMarkdown renders a blocked result as Markdown. It returns ""
// when the result is not blocked.
func RejectionMarkdown(r ScanResult) string {
	if !r.Blocked {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Blocked\n\n")
	fmt.Fprintf(&b, "**Reason:** %s\n", r.BlockReason)

	for _, level := range finding.Levels {
		group := atLevel(r.Issues, level)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s (%d)\n\n", level, len(group))
		for _, f := range group {
			fmt.Fprintf(&b, "- **%s** line %d: %s\n", f.RuleID, f.Line, f.Description)
			if f.Code != "" {
				fmt.Fprintf(&b, "  - `%s`\n", strings.ReplaceAll(f.Code, "`", "'"))
			}
			fmt.Fprintf(&b, "  - %s\n", f.Suggestion)
		}
	}
	return b.String()
}

func atLevel(findings []finding.Finding, level finding.RiskLevel) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Level == level {
			out = append(out, f)
		}
	}
	return out
}
