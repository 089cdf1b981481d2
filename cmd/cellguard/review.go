package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/cellguard/internal/notebook"
	"github.com/Lin-Jiong-HDU/cellguard/internal/tui"
)

func getReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review <paths...>",
		Short: "Browse scan results cell by cell",
		Long: `Open a TUI listing every cell with its verdict.

j/k move, gg/G jump to the first or last cell, enter shows the findings,
m toggles blocking of MEDIUM findings, q quits.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runReview,
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	docs := make([]*notebook.Document, 0, len(args))
	for _, path := range args {
		doc, err := loadDocument(cmd, path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	model := tui.NewModel(docs, cfg.Scanner)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
