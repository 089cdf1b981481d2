package security

import "github.com/Lin-Jiong-HDU/cellguard/internal/finding"

// Policy decides which severities block. CRITICAL always blocks.
type Policy struct {
	// BlockHighRisk blocks on HIGH findings.
	BlockHighRisk bool `mapstructure:"block_high_risk"`

	// BlockMediumRisk blocks on MEDIUM findings.
	BlockMediumRisk bool `mapstructure:"block_medium_risk"`

	// AnalyzeUnparsable scans the error-recovered tree of input that does
	// not parse, instead of treating it as safe.
	AnalyzeUnparsable bool `mapstructure:"analyze_unparsable"`
}

// DefaultPolicy returns the default policy: CRITICAL and HIGH block,
// MEDIUM does not.
func DefaultPolicy() *Policy {
	return &Policy{
		BlockHighRisk:     true,
		BlockMediumRisk:   false,
		AnalyzeUnparsable: false,
	}
}

// Blocks reports whether a finding at level blocks under this policy.
func (p Policy) Blocks(level finding.RiskLevel) bool {
	switch level {
	case finding.LevelCritical:
		return true
	case finding.LevelHigh:
		return p.BlockHighRisk
	case finding.LevelMedium:
		return p.BlockMediumRisk
	}
	return false
}

// Decide returns the finding that blocks, if any: the first CRITICAL
// finding, else the first HIGH one when HIGH blocks, else the first
// MEDIUM one when MEDIUM blocks.
func (p Policy) Decide(findings []finding.Finding) (finding.Finding, bool) {
	for _, level := range finding.Levels {
		if !p.Blocks(level) {
			continue
		}
		if f, ok := finding.FirstAt(findings, level); ok {
			return f, true
		}
	}
	return finding.Finding{}, false
}

// blockReason formats the reason shown for a blocking finding.
func blockReason(f finding.Finding) string {
	return f.Description + ": " + f.Suggestion
}
