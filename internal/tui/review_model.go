package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lin-Jiong-HDU/cellguard/internal/notebook"
	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

// row is one cell in the list.
type row struct {
	path string
	cell report.CellResult
}

// model is the Bubble Tea model for the review TUI
type model struct {
	docs        []*notebook.Document
	policy      security.Policy
	rows        []row
	cursor      int
	expanded    map[int]bool
	keys        keyMap
	showingHelp bool
	pendingG    bool // Tracks if 'g' was pressed for 'gg' command
	width       int
	height      int
	renderer    *Renderer
}

// NewModel scans every cell of docs under policy and returns the browser
// model.
func NewModel(docs []*notebook.Document, policy security.Policy) Model {
	return model{
		docs:     docs,
		policy:   policy,
		rows:     flatten(scanAll(docs, policy)),
		expanded: make(map[int]bool),
		keys:     defaultKeyMap(),
		renderer: NewRenderer(DefaultStyleConfig()),
	}
}

func scanAll(docs []*notebook.Document, policy security.Policy) []report.FileResult {
	r := report.New("cellguard", "")
	scanner := security.NewScanner(&policy)
	for _, doc := range docs {
		r.Add(doc, scanner)
	}
	return r.Files
}

func flatten(files []report.FileResult) []row {
	var rows []row
	for _, f := range files {
		for _, c := range f.Cells {
			rows = append(rows, row{path: f.Path, cell: c})
		}
	}
	return rows
}

// rescan scans every cell again under policy off the update loop.
func rescan(docs []*notebook.Document, policy security.Policy) tea.Cmd {
	return func() tea.Msg {
		return RescanMsg{Policy: policy, Files: scanAll(docs, policy)}
	}
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case RescanMsg:
		m.policy = msg.Policy
		m.rows = flatten(msg.Files)
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		return m, nil
	}

	return m, nil
}

func (m model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" || msg.String() == "ctrl+c" || msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}

	if msg.String() == "?" {
		m.showingHelp = !m.showingHelp
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		m.pendingG = false
		if len(m.rows) > 0 {
			expanded := make(map[int]bool, len(m.expanded)+1)
			for i, v := range m.expanded {
				expanded[i] = v
			}
			expanded[m.cursor] = !expanded[m.cursor]
			m.expanded = expanded
		}
		return m, nil
	}

	switch msg.String() {
	case "k", "up":
		m.pendingG = false
		if m.cursor > 0 {
			m.cursor--
		}
	case "j", "down":
		m.pendingG = false
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "g":
		if m.pendingG {
			m.cursor = 0
			m.pendingG = false
		} else {
			m.pendingG = true
		}
	case "G":
		m.pendingG = false
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
	case "m":
		m.pendingG = false
		policy := m.policy
		policy.BlockMediumRisk = !policy.BlockMediumRisk
		return m, rescan(m.docs, policy)
	default:
		m.pendingG = false
	}

	return m, nil
}

// View renders the UI
func (m model) View() string {
	if m.showingHelp {
		return m.renderer.RenderHelp(&m)
	}
	return m.renderer.Render(&m)
}
