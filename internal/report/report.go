// Package report encodes batch scan results as text, JSON, SARIF or
// Markdown.
package report

import (
	"fmt"
	"io"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/notebook"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

// CellResult pairs a cell with its verdict.
type CellResult struct {
	Cell   notebook.Cell       `json:"cell"`
	Result security.ScanResult `json:"result"`
}

// FileResult holds the verdicts for every cell of one source.
type FileResult struct {
	Path  string       `json:"path"`
	Cells []CellResult `json:"cells"`
}

// Report is the outcome of one scan run.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	Files   []FileResult `json:"files"`
}

// New creates an empty report for the named tool.
func New(tool, version string) *Report {
	return &Report{Tool: tool, Version: version, Files: []FileResult{}}
}

// Add scans every cell of doc with scanner and appends the results.
func (r *Report) Add(doc *notebook.Document, scanner *security.Scanner) FileResult {
	fr := FileResult{Path: doc.Path, Cells: make([]CellResult, 0, len(doc.Cells))}
	for _, cell := range doc.Cells {
		fr.Cells = append(fr.Cells, CellResult{Cell: cell, Result: scanner.Scan(cell.Source)})
	}
	r.Files = append(r.Files, fr)
	return fr
}

// Summary counts cells and findings across the report.
type Summary struct {
	Files   int                       `json:"files"`
	Cells   int                       `json:"cells"`
	Blocked int                       `json:"blocked"`
	Levels  map[finding.RiskLevel]int `json:"-"`
}

// Summary tallies the report.
func (r *Report) Summary() Summary {
	s := Summary{Files: len(r.Files), Levels: make(map[finding.RiskLevel]int)}
	for _, f := range r.Files {
		for _, c := range f.Cells {
			s.Cells++
			if c.Result.Blocked {
				s.Blocked++
			}
			for level, n := range finding.Counts(c.Result.Issues) {
				s.Levels[level] += n
			}
		}
	}
	return s
}

// Blocked reports whether any cell was blocked.
func (r *Report) Blocked() bool {
	return r.Summary().Blocked > 0
}

// Write encodes the report in the named format.
func Write(w io.Writer, format string, r *Report) error {
	switch format {
	case "text", "":
		return WriteText(w, r)
	case "json":
		return WriteJSON(w, r)
	case "sarif":
		return WriteSARIF(w, r)
	case "markdown":
		return WriteMarkdown(w, r)
	}
	return fmt.Errorf("unknown output format %q", format)
}
