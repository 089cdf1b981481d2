package report

import (
	"encoding/json"
	"io"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

// SARIF 2.1.0 subset.
type SarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool    SarifTool     `json:"tool"`
	Results []SarifResult `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []SarifRule `json:"rules"`
}

type SarifRule struct {
	ID                   string             `json:"id"`
	ShortDescription     SarifMessage       `json:"shortDescription"`
	Help                 SarifMessage       `json:"help"`
	DefaultConfiguration SarifConfiguration `json:"defaultConfiguration"`
	Properties           map[string]string  `json:"properties,omitempty"`
}

type SarifConfiguration struct {
	Level string `json:"level"`
}

type SarifResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    SarifMessage    `json:"message"`
	Locations  []SarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           SarifRegion           `json:"region"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   SarifMessage `json:"snippet"`
}

// sarifLevel maps risk levels onto SARIF result levels.
func sarifLevel(level finding.RiskLevel) string {
	switch level {
	case finding.LevelCritical, finding.LevelHigh:
		return "error"
	case finding.LevelMedium:
		return "warning"
	default:
		return "note"
	}
}

// BuildSARIF converts the report into a SARIF log with the full rule
// catalog in the driver.
func BuildSARIF(r *Report) SarifLog {
	var rules []SarifRule
	for _, rule := range security.Rules() {
		rules = append(rules, SarifRule{
			ID:                   rule.ID,
			ShortDescription:     SarifMessage{Text: rule.Description},
			Help:                 SarifMessage{Text: rule.Suggestion},
			DefaultConfiguration: SarifConfiguration{Level: sarifLevel(rule.Level)},
			Properties: map[string]string{
				"layer":    string(rule.Layer),
				"family":   rule.Family,
				"severity": rule.Level.String(),
			},
		})
	}

	results := []SarifResult{}
	for _, f := range r.Files {
		for _, c := range f.Cells {
			for _, issue := range c.Result.Issues {
				line := c.Cell.FileLine(issue.Line)
				if line < 1 {
					line = 1
				}
				results = append(results, SarifResult{
					RuleID:  issue.RuleID,
					Level:   sarifLevel(issue.Level),
					Message: SarifMessage{Text: issue.Description + ". " + issue.Suggestion},
					Locations: []SarifLocation{
						{
							PhysicalLocation: SarifPhysicalLocation{
								ArtifactLocation: SarifArtifactLocation{URI: f.Path},
								Region: SarifRegion{
									StartLine: line,
									Snippet:   SarifMessage{Text: issue.Code},
								},
							},
						},
					},
					Properties: map[string]any{
						"cell":     c.Cell.Index + 1,
						"severity": issue.Level.String(),
						"blocked":  c.Result.Blocked,
					},
				})
			}
		}
	}

	return SarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []SarifRun{
			{
				Tool: SarifTool{
					Driver: SarifDriver{
						Name:    r.Tool,
						Version: r.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
}

// WriteSARIF writes the report as SARIF 2.1.0 JSON.
func WriteSARIF(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildSARIF(r))
}
