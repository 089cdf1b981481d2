// Package notebook splits source files into the cells a kernel would run.
//
// Jupyter notebooks contribute their code cells. Python files written in
// the percent format ("# %%" markers) are split at each marker. Anything
// else is a single cell.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Cell is one unit of code submitted for scanning.
type Cell struct {
	// Index is the cell's position among all cells of the source,
	// including markdown cells of a notebook.
	Index int `json:"index"`
	// StartLine is the 1-based line in the file where the cell's code
	// begins. Zero for notebook cells.
	StartLine int    `json:"start_line,omitempty"`
	Source    string `json:"source"`
}

// Label names the cell for display.
func (c Cell) Label() string {
	if c.StartLine > 0 {
		return fmt.Sprintf("cell %d (line %d)", c.Index+1, c.StartLine)
	}
	return fmt.Sprintf("cell %d", c.Index+1)
}

// FileLine maps a 1-based line inside the cell to a line in the file.
func (c Cell) FileLine(line int) int {
	if c.StartLine == 0 || line <= 0 {
		return line
	}
	return c.StartLine + line - 1
}

// Document is a loaded source.
type Document struct {
	Path  string `json:"path"`
	Cells []Cell `json:"cells"`
}

// Load reads path and splits it into cells. "-" reads stdin.
func Load(path string) (*Document, error) {
	if path == "-" {
		return Read("<stdin>", os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(path, f)
}

// Read splits the content of r into cells; name selects the format by
// extension.
func Read(name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	doc := &Document{Path: name}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ipynb":
		cells, err := parseNotebook(data)
		if err != nil {
			return nil, fmt.Errorf("parse notebook %s: %w", name, err)
		}
		doc.Cells = cells
	case ".py":
		doc.Cells = splitPercent(string(data))
	default:
		doc.Cells = []Cell{{Index: 0, StartLine: 1, Source: string(data)}}
	}
	return doc, nil
}

type rawNotebook struct {
	Cells []rawCell `json:"cells"`
}

type rawCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// parseNotebook extracts code cells. nbformat stores source either as a
// string or as a list of lines.
func parseNotebook(data []byte) ([]Cell, error) {
	var nb rawNotebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, err
	}

	var cells []Cell
	for i, c := range nb.Cells {
		if c.CellType != "code" {
			continue
		}
		src, err := cellSource(c.Source)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i+1, err)
		}
		cells = append(cells, Cell{Index: i, Source: src})
	}
	return cells, nil
}

func cellSource(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("source is neither a string nor a list of strings")
	}
	return strings.Join(lines, ""), nil
}

// percentMarker matches "# %%" cell separators, including "# %% [markdown]".
var percentMarker = regexp.MustCompile(`^#\s*%%(.*)$`)

// splitPercent splits percent-format source at each "# %%" marker. Cells
// tagged [markdown] or [md] and blank cells are skipped. Without markers
// the whole text is one cell.
func splitPercent(src string) []Cell {
	type span struct {
		start    int
		markdown bool
		body     []string
	}

	var spans []span
	cur := span{start: 1}
	for i, line := range strings.Split(src, "\n") {
		m := percentMarker.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			cur.body = append(cur.body, line)
			continue
		}
		spans = append(spans, cur)
		tag := strings.ToLower(m[1])
		cur = span{
			start:    i + 2,
			markdown: strings.Contains(tag, "[markdown]") || strings.Contains(tag, "[md]"),
		}
	}
	spans = append(spans, cur)

	if len(spans) == 1 {
		return []Cell{{Index: 0, StartLine: 1, Source: src}}
	}
	// Blank preamble before the first marker.
	if strings.TrimSpace(strings.Join(spans[0].body, "\n")) == "" {
		spans = spans[1:]
	}

	var cells []Cell
	for i, s := range spans {
		text := strings.Join(s.body, "\n")
		if s.markdown || strings.TrimSpace(text) == "" {
			continue
		}
		cells = append(cells, Cell{Index: i, StartLine: s.start, Source: text})
	}
	return cells
}
