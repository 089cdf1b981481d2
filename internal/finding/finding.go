// Package finding defines the issue model shared by every scanning layer.
package finding

import (
	"fmt"
	"strings"
)

// RiskLevel is an ordered severity: LOW < MEDIUM < HIGH < CRITICAL.
type RiskLevel int

const (
	LevelLow RiskLevel = iota + 1
	LevelMedium
	LevelHigh
	LevelCritical
)

// Levels lists every risk level from most to least severe.
var Levels = []RiskLevel{LevelCritical, LevelHigh, LevelMedium, LevelLow}

func (l RiskLevel) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// ParseRiskLevel parses a level name, case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return LevelLow, nil
	case "MEDIUM":
		return LevelMedium, nil
	case "HIGH":
		return LevelHigh, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

// MarshalText encodes the level by name.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *RiskLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MaxSnippetLen bounds Finding.Code.
const MaxSnippetLen = 100

// Finding is one detected issue. Values are never mutated after creation.
type Finding struct {
	RuleID      string    `json:"rule_id"`
	Description string    `json:"description"`
	Level       RiskLevel `json:"level"`
	Line        int       `json:"line"`
	Code        string    `json:"code"`
	Suggestion  string    `json:"suggestion"`
}

// Snippet collapses whitespace runs and truncates to MaxSnippetLen,
// ending in "..." when cut.
func Snippet(code string) string {
	s := strings.Join(strings.Fields(code), " ")
	if len(s) <= MaxSnippetLen {
		return s
	}
	cut := MaxSnippetLen - 3
	// Don't split a UTF-8 sequence.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}

// Counts tallies findings per level.
func Counts(findings []Finding) map[RiskLevel]int {
	counts := make(map[RiskLevel]int, len(Levels))
	for _, f := range findings {
		counts[f.Level]++
	}
	return counts
}

// FirstAt returns the first finding (in detection order) at the given level.
func FirstAt(findings []Finding, level RiskLevel) (Finding, bool) {
	for _, f := range findings {
		if f.Level == level {
			return f, true
		}
	}
	return Finding{}, false
}
