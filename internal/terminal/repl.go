// Package terminal implements the interactive cell REPL.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

// ErrUserExit signals that the user asked to leave the REPL.
var ErrUserExit = errors.New("user requested exit")

// REPL reads cells from the user and prints the scan verdict for each.
// A blank line submits the pending cell.
type REPL struct {
	scanner  *security.Scanner
	renderer *Renderer
	in       io.Reader
	out      io.Writer

	pending []string
	scanned int
	blocked int
}

// NewREPL creates a REPL reading from in and writing to out.
func NewREPL(scanner *security.Scanner, in io.Reader, out io.Writer) *REPL {
	return &REPL{scanner: scanner, in: in, out: out}
}

// SetRenderer enables Markdown rendering of rejection messages.
func (r *REPL) SetRenderer(renderer *Renderer) {
	r.renderer = renderer
}

// Run reads lines until /exit or end of input. A cell still pending at
// end of input is scanned before returning.
func (r *REPL) Run() error {
	fmt.Fprintln(r.out, "Paste a cell and finish it with a blank line. /help lists commands.")
	r.prompt()

	lines := bufio.NewScanner(r.in)
	lines.Buffer(make([]byte, 64*1024), 1024*1024)
	for lines.Scan() {
		if err := r.ProcessLine(lines.Text()); err != nil {
			if errors.Is(err, ErrUserExit) {
				return nil
			}
			return err
		}
		r.prompt()
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if len(r.pending) > 0 {
		r.submit()
	}
	fmt.Fprintln(r.out)
	r.DisplayExitSummary()
	return nil
}

func (r *REPL) prompt() {
	if len(r.pending) == 0 {
		fmt.Fprint(r.out, ">>> ")
	} else {
		fmt.Fprint(r.out, "... ")
	}
}

// ProcessLine handles one input line: a command when no cell is pending,
// otherwise a line of the cell.
func (r *REPL) ProcessLine(line string) error {
	if len(r.pending) == 0 && strings.HasPrefix(strings.TrimSpace(line), "/") {
		shouldExit, err := r.HandleCommand(strings.TrimSpace(line))
		if err != nil {
			return err
		}
		if shouldExit {
			return ErrUserExit
		}
		return nil
	}

	if strings.TrimSpace(line) == "" {
		if len(r.pending) > 0 {
			r.submit()
		}
		return nil
	}

	r.pending = append(r.pending, line)
	return nil
}

func (r *REPL) submit() {
	cell := strings.Join(r.pending, "\n")
	r.pending = r.pending[:0]
	r.ProcessInput(cell)
}

// ProcessInput scans one cell and prints its verdict.
func (r *REPL) ProcessInput(cell string) security.ScanResult {
	result := r.scanner.Scan(cell)
	r.scanned++

	switch {
	case result.Blocked:
		r.blocked++
		if r.renderer != nil {
			fmt.Fprint(r.out, r.renderer.Render(security.RejectionMarkdown(result)))
		} else {
			fmt.Fprint(r.out, security.RejectionMessage(result))
		}
	case len(result.Issues) > 0:
		fmt.Fprintf(r.out, "! allowed with %d warning(s)\n", len(result.Issues))
		for _, f := range result.Issues {
			fmt.Fprintf(r.out, "  %-8s [%s] line %d: %s\n", f.Level, f.RuleID, f.Line, f.Description)
		}
	default:
		fmt.Fprintln(r.out, "✓ no issues")
	}
	return result
}

// HandleCommand runs a slash command and reports whether the REPL should
// exit.
func (r *REPL) HandleCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/exit", "/quit":
		r.DisplayExitSummary()
		return true, nil

	case "/help":
		r.DisplayHelp()
		return false, nil

	case "/clear":
		fmt.Fprint(r.out, "\033[H\033[2J")
		return false, nil

	case "/rules":
		r.DisplayRules(parts[1:])
		return false, nil

	case "/policy":
		r.DisplayPolicy()
		return false, nil

	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", parts[0])
		return false, nil
	}
}

// DisplayHelp prints the command list.
func (r *REPL) DisplayHelp() {
	help := `
Commands:
  /help              show this help
  /rules [ID...]     list rules, or describe the given rule IDs
  /policy            show the blocking policy
  /clear             clear the screen
  /exit, /quit       leave

Enter code line by line; an empty line submits the cell.
`
	fmt.Fprintln(r.out, help)
}

// DisplayRules lists the catalog, or the named rules in full.
func (r *REPL) DisplayRules(ids []string) {
	if len(ids) == 0 {
		for _, rule := range security.Rules() {
			fmt.Fprintf(r.out, "  %-10s %-8s %s\n", rule.ID, rule.Level, rule.Description)
		}
		return
	}
	for _, id := range ids {
		rule, ok := security.LookupRule(strings.ToUpper(id))
		if !ok {
			fmt.Fprintf(r.out, "  %s: no such rule\n", id)
			continue
		}
		fmt.Fprintf(r.out, "  %s (%s, %s, %s)\n    %s\n    fix: %s\n",
			rule.ID, rule.Layer, rule.Family, rule.Level, rule.Description, rule.Suggestion)
	}
}

// DisplayPolicy prints which levels block.
func (r *REPL) DisplayPolicy() {
	p := r.scanner.Policy()
	for _, level := range finding.Levels {
		verdict := "warn"
		if p.Blocks(level) {
			verdict = "block"
		}
		fmt.Fprintf(r.out, "  %-8s %s\n", level, verdict)
	}
	fmt.Fprintf(r.out, "  analyze unparsable: %t\n", p.AnalyzeUnparsable)
}

// DisplayExitSummary prints session totals.
func (r *REPL) DisplayExitSummary() {
	fmt.Fprintf(r.out, "Scanned %d cell(s), %d blocked.\n", r.scanned, r.blocked)
}
