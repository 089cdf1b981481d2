package security

import (
	"testing"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if !p.BlockHighRisk {
		t.Error("BlockHighRisk should default to true")
	}
	if p.BlockMediumRisk {
		t.Error("BlockMediumRisk should default to false")
	}
	if p.AnalyzeUnparsable {
		t.Error("AnalyzeUnparsable should default to false")
	}
}

func TestPolicy_Blocks(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		level  finding.RiskLevel
		want   bool
	}{
		{"critical always", Policy{}, finding.LevelCritical, true},
		{"high off", Policy{}, finding.LevelHigh, false},
		{"high on", Policy{BlockHighRisk: true}, finding.LevelHigh, true},
		{"medium off", Policy{BlockHighRisk: true}, finding.LevelMedium, false},
		{"medium on", Policy{BlockMediumRisk: true}, finding.LevelMedium, true},
		{"low never", Policy{BlockHighRisk: true, BlockMediumRisk: true}, finding.LevelLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Blocks(tt.level); got != tt.want {
				t.Errorf("Blocks(%s) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestPolicy_Decide(t *testing.T) {
	medium := finding.Finding{RuleID: "M", Level: finding.LevelMedium}
	high1 := finding.Finding{RuleID: "H1", Level: finding.LevelHigh}
	high2 := finding.Finding{RuleID: "H2", Level: finding.LevelHigh}
	critical := finding.Finding{RuleID: "C", Level: finding.LevelCritical}

	tests := []struct {
		name     string
		policy   Policy
		findings []finding.Finding
		wantID   string
		blocked  bool
	}{
		{"critical beats earlier high", *DefaultPolicy(), []finding.Finding{high1, critical}, "C", true},
		{"first high wins", *DefaultPolicy(), []finding.Finding{medium, high1, high2}, "H1", true},
		{"high not blocking", Policy{}, []finding.Finding{high1, medium}, "", false},
		{"medium blocking", Policy{BlockMediumRisk: true}, []finding.Finding{high1, medium}, "M", true},
		{"nothing", *DefaultPolicy(), nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := tt.policy.Decide(tt.findings)
			if ok != tt.blocked {
				t.Fatalf("Decide() blocked = %v, want %v", ok, tt.blocked)
			}
			if f.RuleID != tt.wantID {
				t.Errorf("Decide() rule = %q, want %q", f.RuleID, tt.wantID)
			}
		})
	}
}
