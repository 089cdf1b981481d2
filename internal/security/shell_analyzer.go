package security

import (
	"regexp"
	"strings"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	cellMagicPattern = regexp.MustCompile(`^\s*%%(\w+)`)
	bangPattern      = regexp.MustCompile(`^(\s*)(?:[A-Za-z_][\w.]*\s*=\s*)?!{1,2}\s*(.+)$`)
	shellLineMagic   = regexp.MustCompile(`^(\s*)(?:[A-Za-z_][\w.]*\s*=\s*)?%(?:sx|system|sc)\b\s*(.*)$`)
	lineMagic        = regexp.MustCompile(`^(\s*)%[A-Za-z_]\w*`)
	ipythonBypass    = regexp.MustCompile(`get_ipython\s*\(\s*\)\s*\.\s*(system|getoutput|run_line_magic|run_cell_magic)\b`)
)

// PreParseResult is the verdict of the pre-parse layer.
type PreParseResult struct {
	IsSafe      bool              `json:"is_safe"`
	Blocked     bool              `json:"blocked"`
	BlockReason string            `json:"block_reason,omitempty"`
	Issues      []finding.Finding `json:"issues"`

	// rewritten is the input with approved escape lines replaced by pass,
	// ready for the Python parser.
	rewritten string
}

// ShellEscapeScanner finds interactive-shell constructs the Python parser
// never sees: cell magics, shell-escape lines and get_ipython() calls.
// It works line by line on raw text.
type ShellEscapeScanner struct {
	policy  Policy
	checker *ShellCommandChecker

	shellMagics    map[string]bool
	rendererMagics map[string]bool
	// Cell magics whose body is ordinary Python run in the kernel.
	pythonMagics map[string]bool
}

// NewShellEscapeScanner creates a scanner that decides blocking with policy.
func NewShellEscapeScanner(policy Policy) *ShellEscapeScanner {
	return &ShellEscapeScanner{
		policy:  policy,
		checker: NewShellCommandChecker(),
		shellMagics: map[string]bool{
			"bash": true, "sh": true, "zsh": true, "script": true,
			"ruby": true, "perl": true,
			"python": true, "python2": true, "python3": true, "pypy": true,
			"cmd": true, "powershell": true, "pwsh": true,
			"system": true, "sx": true,
		},
		rendererMagics: map[string]bool{
			"html": true, "javascript": true, "js": true, "svg": true, "latex": true,
		},
		pythonMagics: map[string]bool{
			"capture": true, "time": true, "timeit": true, "prun": true,
		},
	}
}

// Scan runs the pre-parse detectors over code.
func (s *ShellEscapeScanner) Scan(code string) PreParseResult {
	lines := strings.Split(code, "\n")
	var issues []finding.Finding
	shellBody := false
	rendererBody := false
	var py logicalLines

	for i, line := range lines {
		lineNo := i + 1
		start := py.atStart()

		if m := cellMagicPattern.FindStringSubmatch(line); m != nil && start {
			name := m[1]
			shellBody, rendererBody = false, false
			switch {
			case s.shellMagics[name]:
				issues = append(issues, ruleMagicShell.At(lineNo, line, "%%"+name))
				shellBody = true
			case s.rendererMagics[name]:
				issues = append(issues, ruleMagicRenderer.At(lineNo, line, "%%"+name))
				rendererBody = true
			case s.pythonMagics[name]:
				lines[i] = maskLine(line, "")
			}
			continue
		}

		if shellBody {
			if p, ok := s.checker.SourcedConfig(line); ok {
				issues = append(issues, ruleMagicSource.At(lineNo, line, p))
			}
			continue
		}

		if m := ipythonBypass.FindStringSubmatch(line); m != nil {
			issues = append(issues, ruleShellIPython.At(lineNo, line, "get_ipython()."+m[1]))
		}

		if !start {
			// Continuation of a logical line: a leading ! or % is Python.
			py.feed(line)
			continue
		}

		indent, cmd, ok := escapeCommand(line)
		if ok {
			rule, detail := s.checker.Classify(cmd)
			issues = append(issues, rule.At(lineNo, line, detail))
			lines[i] = maskLine(line, indent)
			continue
		}

		if m := lineMagic.FindStringSubmatch(line); m != nil {
			lines[i] = maskLine(line, m[1])
			continue
		}

		if !rendererBody {
			py.feed(line)
		}
	}

	result := PreParseResult{
		IsSafe:    len(issues) == 0,
		Issues:    issues,
		rewritten: strings.Join(lines, "\n"),
	}
	if result.Issues == nil {
		result.Issues = []finding.Finding{}
	}
	if f, ok := s.policy.Decide(issues); ok {
		result.Blocked = true
		result.BlockReason = blockReason(f)
	}
	return result
}

// escapeCommand extracts the shell command of a !cmd, !!cmd, x = !cmd or
// %sx/%system/%sc line.
func escapeCommand(line string) (indent, cmd string, ok bool) {
	if m := bangPattern.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if m := shellLineMagic.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// maskLine replaces an escape line with a pass statement at the same
// indentation, so the surrounding Python still parses.
func maskLine(line, indent string) string {
	if indent == "" {
		indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return indent + "pass"
}

// logicalLines follows Python's line joining across physical lines.
// IPython only recognises escapes and magics at the start of a logical
// line.
type logicalLines struct {
	depth     int    // open brackets
	quote     string // delimiter of an open triple-quoted string
	continued bool   // previous line ended with a backslash
}

func (l *logicalLines) atStart() bool {
	return l.depth == 0 && l.quote == "" && !l.continued
}

// feed advances past one physical line of Python source.
func (l *logicalLines) feed(line string) {
	line = strings.TrimRight(line, "\r")
	l.continued = false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if l.quote != "" {
			switch {
			case c == '\\':
				i++
			case strings.HasPrefix(line[i:], l.quote):
				i += len(l.quote) - 1
				l.quote = ""
			}
			continue
		}
		switch c {
		case '#':
			return
		case '\\':
			if i == len(line)-1 {
				l.continued = true
			}
			i++
		case '(', '[', '{':
			l.depth++
		case ')', ']', '}':
			if l.depth > 0 {
				l.depth--
			}
		case '\'', '"':
			if triple := strings.Repeat(string(c), 3); strings.HasPrefix(line[i:], triple) {
				l.quote = triple
				i += 2
				continue
			}
			i = l.skipString(line, i)
		}
	}
}

// skipString returns the index of the quote closing the single-line string
// opened at line[open].
func (l *logicalLines) skipString(line string, open int) int {
	for j := open + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			if j == len(line)-1 {
				l.continued = true
			}
			j++
		case line[open]:
			return j
		}
	}
	return len(line)
}

// startsWithCellMagic reports whether the first non-blank text of code is
// a %% cell magic.
func startsWithCellMagic(code string) bool {
	return strings.HasPrefix(strings.TrimLeft(code, " \t\r\n"), "%%")
}
