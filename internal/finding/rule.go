package finding

// Layer names the scanning layer a rule belongs to.
type Layer string

const (
	LayerPreParse Layer = "pre-parse"
	LayerAST      Layer = "ast"
)

// Rule is a catalog entry. Every Finding is produced from one Rule.
type Rule struct {
	ID          string    `json:"id"`
	Layer       Layer     `json:"layer"`
	Family      string    `json:"family"`
	Level       RiskLevel `json:"level"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion"`
}

// At builds a Finding for this rule. A non-empty detail is appended to
// the description in parentheses.
func (r Rule) At(line int, code, detail string) Finding {
	desc := r.Description
	if detail != "" {
		desc += " (" + detail + ")"
	}
	return Finding{
		RuleID:      r.ID,
		Description: desc,
		Level:       r.Level,
		Line:        line,
		Code:        Snippet(code),
		Suggestion:  r.Suggestion,
	}
}
