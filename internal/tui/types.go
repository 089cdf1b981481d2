// Package tui is the bubbletea browser over per-cell scan results.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

// RescanMsg carries the results of scanning every cell again under a new
// policy.
type RescanMsg struct {
	Policy security.Policy
	Files  []report.FileResult
}

// Model is the interface for the TUI model
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Model, tea.Cmd)
	View() string
}
