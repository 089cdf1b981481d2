package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	subprocessCalls = setOf(
		"subprocess.run", "subprocess.call", "subprocess.check_call",
		"subprocess.check_output", "subprocess.Popen",
	)
	// Always run through /bin/sh.
	alwaysShellCalls = setOf(
		"subprocess.getoutput", "subprocess.getstatusoutput",
		"asyncio.create_subprocess_shell",
	)
	execOnlyCalls = setOf("asyncio.create_subprocess_exec")
	osModules     = []string{"os.", "posix.", "nt."}
)

// isOSProcessCall reports whether a qualified name is os.system, os.popen
// or one of the spawn*/exec*/posix_spawn* families.
func isOSProcessCall(qualified string) bool {
	if qualified == "pty.spawn" {
		return true
	}
	for _, prefix := range osModules {
		fn, ok := strings.CutPrefix(qualified, prefix)
		if !ok || strings.Contains(fn, ".") {
			continue
		}
		switch {
		case fn == "system", fn == "popen", fn == "startfile":
			return true
		case strings.HasPrefix(fn, "spawn"), strings.HasPrefix(fn, "exec"), strings.HasPrefix(fn, "posix_spawn"):
			return true
		}
	}
	return false
}

// processRules flags process creation.
func processRules(n *sitter.Node, s *scope) []finding.Finding {
	switch n.Type() {
	case "import_statement", "import_from_statement":
		for _, mod := range importModules(n, s.src) {
			if mod == "subprocess" || strings.HasPrefix(mod, "subprocess.") {
				return []finding.Finding{s.report(ruleProcImport, n, "")}
			}
		}
		return nil
	case "call":
	default:
		return nil
	}

	names := s.callNames(n)
	for _, name := range names {
		if isOSProcessCall(name) {
			return []finding.Finding{s.report(ruleProcOS, n, name)}
		}
	}
	if name, ok := matchName(names, alwaysShellCalls); ok {
		return []finding.Finding{s.report(ruleProcShell, n, name)}
	}
	if name, ok := matchName(names, subprocessCalls); ok {
		_, kw := s.arguments(n)
		if isTruthyLiteral(kw["shell"], s.src) {
			return []finding.Finding{s.report(ruleProcShell, n, name+" with shell=True")}
		}
		return []finding.Finding{s.report(ruleProcSubprocess, n, name)}
	}
	if name, ok := matchName(names, execOnlyCalls); ok {
		return []finding.Finding{s.report(ruleProcSubprocess, n, name)}
	}
	return nil
}
