package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

var (
	rulesLayer string
	rulesJSON  bool
)

func getRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the detection rules",
		RunE:  runRules,
	}

	cmd.Flags().StringVar(&rulesLayer, "layer", "", "only list rules of one layer: pre-parse or ast")
	cmd.Flags().BoolVar(&rulesJSON, "json", false, "print the catalog as JSON")

	return cmd
}

func runRules(cmd *cobra.Command, args []string) error {
	var rules []finding.Rule
	for _, r := range security.Rules() {
		if rulesLayer == "" || string(r.Layer) == rulesLayer {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return fmt.Errorf("unknown layer %q (want pre-parse or ast)", rulesLayer)
	}

	if rulesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	}

	fmt.Fprintln(cmd.OutOrStdout(), rulesTable(rules))
	return nil
}

func rulesTable(rules []finding.Rule) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			r.ID,
			string(r.Layer),
			strings.ToLower(r.Family),
			report.LevelStyle(r.Level).Render(r.Level.String()),
			r.Description,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ID", "LAYER", "FAMILY", "LEVEL", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}
