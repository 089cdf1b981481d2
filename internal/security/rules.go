package security

import (
	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security/pyscan"
)

// Pre-parse rule families.
const (
	FamilyCellMagic   = "cell-magic"
	FamilyShellEscape = "shell-escape"
)

func preParseRule(id, family string, level finding.RiskLevel, desc, suggestion string) finding.Rule {
	return finding.Rule{
		ID:          id,
		Layer:       finding.LayerPreParse,
		Family:      family,
		Level:       level,
		Description: desc,
		Suggestion:  suggestion,
	}
}

const shellSuggestion = "Do not run shell commands; use the provided Python APIs instead."

var (
	ruleMagicShell    = preParseRule("MAGIC001", FamilyCellMagic, finding.LevelCritical, "Cell magic runs the body in a shell or external interpreter", "Remove the cell magic and write the cell as plain Python.")
	ruleMagicRenderer = preParseRule("MAGIC002", FamilyCellMagic, finding.LevelMedium, "Cell magic renders markup or script in the front end", "Make sure the rendered content is static and trusted.")
	ruleMagicSource   = preParseRule("MAGIC003", FamilyCellMagic, finding.LevelCritical, "Shell cell sources a shell configuration or environment file", "Never source shell profiles or environment files.")

	ruleShellSource    = preParseRule("SHELL001", FamilyShellEscape, finding.LevelCritical, "Shell escape sources a shell configuration or environment file", "Never source shell profiles or environment files.")
	ruleShellDangerous = preParseRule("SHELL002", FamilyShellEscape, finding.LevelHigh, "Shell escape runs a dangerous command", shellSuggestion)
	ruleShellRCE       = preParseRule("SHELL003", FamilyShellEscape, finding.LevelCritical, "Shell escape downloads, pipes into a shell or reads credentials", shellSuggestion)
	ruleShellGeneric   = preParseRule("SHELL004", FamilyShellEscape, finding.LevelMedium, "Shell escape", shellSuggestion)
	ruleShellIPython   = preParseRule("SHELL005", FamilyShellEscape, finding.LevelCritical, "Shell access through get_ipython()", "Do not call the interactive shell machinery from code.")
)

var preParseRules = []finding.Rule{
	ruleMagicShell, ruleMagicRenderer, ruleMagicSource,
	ruleShellSource, ruleShellDangerous, ruleShellRCE, ruleShellGeneric, ruleShellIPython,
}

// Rules returns the full catalog: pre-parse rules first, then AST rules,
// each ordered by ID.
func Rules() []finding.Rule {
	rules := append([]finding.Rule(nil), preParseRules...)
	return append(rules, pyscan.Rules()...)
}

// LookupRule finds a catalog entry by ID.
func LookupRule(id string) (finding.Rule, bool) {
	for _, r := range Rules() {
		if r.ID == id {
			return r, true
		}
	}
	return finding.Rule{}, false
}
