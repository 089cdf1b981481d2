package security

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// ShellCommandChecker classifies the command text of a shell escape.
//
// Command text is parsed as bash so that sourcing, rm flags and pipelines
// are recognised structurally. Text the bash parser rejects (IPython
// interpolation, half a compound command from a cell body) falls back to
// line regexes.
type ShellCommandChecker struct {
	dangerousWords *regexp.Regexp
	sourceLine     *regexp.Regexp
	rcePatterns    []string
	interpreters   map[string]bool
	configNames    map[string]bool
}

// NewShellCommandChecker creates a checker with the built-in lists.
func NewShellCommandChecker() *ShellCommandChecker {
	return &ShellCommandChecker{
		dangerousWords: regexp.MustCompile(`(?:^|[^\w.-])(source|eval|sudo|su|chmod|chown)(?:$|[^\w.-])`),
		sourceLine:     regexp.MustCompile(`(?:^|[\s;&|(])(?:source|\.)\s+(\S+)`),
		rcePatterns: []string{
			"| bash", "|bash", "| sh", "|sh",
			"curl ", "wget ",
			"/etc/passwd", "/etc/shadow", ".ssh/",
		},
		interpreters: map[string]bool{
			"bash": true, "sh": true, "zsh": true, "dash": true, "ksh": true, "fish": true,
			"python": true, "python3": true, "perl": true, "ruby": true, "node": true,
		},
		configNames: map[string]bool{
			".bashrc": true, ".zshrc": true, ".profile": true, ".bash_profile": true,
			"conda.sh": true, "activate": true, ".env": true, ".envrc": true,
		},
	}
}

// Classify returns the rule a shell-escape command matches, with a short
// detail. Checks run in order: config sourcing, dangerous command, remote
// code execution, and finally the generic shell-escape rule.
func (c *ShellCommandChecker) Classify(cmd string) (finding.Rule, string) {
	file := parseShell(cmd)
	if p, ok := c.sourcedConfig(cmd, file); ok {
		return ruleShellSource, "source " + p
	}
	if d, ok := c.dangerous(cmd, file); ok {
		return ruleShellDangerous, d
	}
	if d, ok := c.remoteExec(cmd, file); ok {
		return ruleShellRCE, d
	}
	return ruleShellGeneric, ""
}

// SourcedConfig reports whether cmd sources a shell configuration or
// environment file, and which one.
func (c *ShellCommandChecker) SourcedConfig(cmd string) (string, bool) {
	return c.sourcedConfig(cmd, parseShell(cmd))
}

// IsConfigPath reports whether p names a shell profile, an environment
// file or anything home-relative.
func (c *ShellCommandChecker) IsConfigPath(p string) bool {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if p == "" {
		return false
	}
	for _, prefix := range []string{"~/", "$HOME", "${HOME}"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return c.configNames[path.Base(p)]
}

func (c *ShellCommandChecker) sourcedConfig(cmd string, file *syntax.File) (string, bool) {
	if file != nil {
		for _, args := range commands(file) {
			if (args[0] == "source" || args[0] == ".") && len(args) > 1 && c.IsConfigPath(args[1]) {
				return args[1], true
			}
		}
		return "", false
	}
	for _, m := range c.sourceLine.FindAllStringSubmatch(cmd, -1) {
		if p := strings.Trim(m[1], `"';`); c.IsConfigPath(p) {
			return p, true
		}
	}
	return "", false
}

func (c *ShellCommandChecker) dangerous(cmd string, file *syntax.File) (string, bool) {
	if m := c.dangerousWords.FindStringSubmatch(cmd); m != nil {
		return m[1], true
	}
	if strings.Contains(cmd, "rm -rf") {
		return "rm -rf", true
	}
	if file == nil {
		return "", false
	}
	for _, args := range commands(file) {
		if path.Base(args[0]) == "rm" && recursiveForce(args[1:]) {
			return strings.Join(args, " "), true
		}
	}
	return "", false
}

func (c *ShellCommandChecker) remoteExec(cmd string, file *syntax.File) (string, bool) {
	for _, p := range c.rcePatterns {
		if strings.Contains(cmd, p) {
			return strings.TrimSpace(p), true
		}
	}
	if file == nil {
		return "", false
	}
	detail := ""
	syntax.Walk(file, func(node syntax.Node) bool {
		if detail != "" {
			return false
		}
		bin, ok := node.(*syntax.BinaryCmd)
		if !ok || (bin.Op != syntax.Pipe && bin.Op != syntax.PipeAll) || bin.Y == nil {
			return true
		}
		if call, ok := bin.Y.Cmd.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			if name := path.Base(wordText(call.Args[0])); c.interpreters[name] {
				detail = "pipe into " + name
				return false
			}
		}
		return true
	})
	return detail, detail != ""
}

// recursiveForce reports whether rm arguments request both recursive and
// forced removal, in any flag spelling.
func recursiveForce(args []string) bool {
	recursive, force := false, false
	for _, a := range args {
		switch {
		case a == "--":
			return recursive && force
		case a == "--recursive":
			recursive = true
		case a == "--force":
			force = true
		case strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--"):
			recursive = recursive || strings.ContainsAny(a, "rR")
			force = force || strings.Contains(a, "f")
		}
	}
	return recursive && force
}

// parseShell parses cmd as bash, returning nil when it does not parse. A
// parser is created per call; syntax.Parser is not safe for concurrent use.
func parseShell(cmd string) *syntax.File {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil
	}
	return file
}

// commands returns the argument words of every simple command in file.
func commands(file *syntax.File) [][]string {
	var out [][]string
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		args := make([]string, 0, len(call.Args))
		for _, w := range call.Args {
			args = append(args, wordText(w))
		}
		out = append(out, args)
		return true
	})
	return out
}

// wordText renders a word as source text with surrounding quotes removed.
func wordText(w *syntax.Word) string {
	if lit := w.Lit(); lit != "" {
		return lit
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, w); err != nil {
		return ""
	}
	return strings.Trim(buf.String(), `"'`)
}
