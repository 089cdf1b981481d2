package finding

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRiskLevel_Ordering(t *testing.T) {
	if !(LevelLow < LevelMedium && LevelMedium < LevelHigh && LevelHigh < LevelCritical) {
		t.Fatal("Expected LOW < MEDIUM < HIGH < CRITICAL")
	}
}

func TestRiskLevel_JSON(t *testing.T) {
	f := Finding{RuleID: "ENV001", Level: LevelCritical, Line: 2}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"level":"CRITICAL"`) {
		t.Errorf("Expected level encoded by name, got %s", data)
	}

	var back Finding
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Level != LevelCritical {
		t.Errorf("Expected CRITICAL, got %v", back.Level)
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    RiskLevel
		wantErr bool
	}{
		{"low", LevelLow, false},
		{" Medium ", LevelMedium, false},
		{"HIGH", LevelHigh, false},
		{"critical", LevelCritical, false},
		{"severe", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRiskLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRiskLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRiskLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("  eval(\n   x)  "); got != "eval( x)" {
		t.Errorf("Expected collapsed whitespace, got %q", got)
	}

	long := strings.Repeat("a", 250)
	got := Snippet(long)
	if len(got) != MaxSnippetLen {
		t.Errorf("Expected %d chars, got %d", MaxSnippetLen, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}

func TestRule_At(t *testing.T) {
	r := Rule{ID: "PROC001", Level: LevelCritical, Description: "Process spawn", Suggestion: "Don't"}

	f := r.At(3, "os.system('ls')", "os.system")
	if f.Description != "Process spawn (os.system)" {
		t.Errorf("Unexpected description %q", f.Description)
	}
	if f.Line != 3 || f.Level != LevelCritical || f.Suggestion != "Don't" {
		t.Errorf("Unexpected finding %+v", f)
	}

	if got := r.At(1, "x", "").Description; got != "Process spawn" {
		t.Errorf("Expected bare description, got %q", got)
	}
}

func TestCountsAndFirstAt(t *testing.T) {
	findings := []Finding{
		{RuleID: "A", Level: LevelHigh},
		{RuleID: "B", Level: LevelCritical},
		{RuleID: "C", Level: LevelHigh},
	}

	counts := Counts(findings)
	if counts[LevelHigh] != 2 || counts[LevelCritical] != 1 || counts[LevelMedium] != 0 {
		t.Errorf("Unexpected counts %v", counts)
	}

	f, ok := FirstAt(findings, LevelHigh)
	if !ok || f.RuleID != "A" {
		t.Errorf("Expected first HIGH to be A, got %+v", f)
	}
	if _, ok := FirstAt(findings, LevelLow); ok {
		t.Error("Expected no LOW finding")
	}
}
