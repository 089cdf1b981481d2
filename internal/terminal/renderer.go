package terminal

import (
	"github.com/charmbracelet/glamour"
)

// Renderer renders Markdown verdicts for the terminal.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a Renderer wrapping at width columns.
func NewRenderer(width int) (*Renderer, error) {
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{term: term}, nil
}

// Render renders markdown. On failure the input is returned unchanged.
func (r *Renderer) Render(markdown string) string {
	out, err := r.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
