package pyscan

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	execBuiltins      = setOf("eval", "exec", "compile")
	builtinNamespaces = setOf("builtins", "__builtins__", "__builtin__")
)

func isExecBuiltin(qualified string) bool {
	if execBuiltins[qualified] {
		return true
	}
	for ns := range builtinNamespaces {
		if len(qualified) > len(ns)+1 && qualified[:len(ns)+1] == ns+"." && execBuiltins[qualified[len(ns)+1:]] {
			return true
		}
	}
	return false
}

// execRules flags eval/exec/compile however they are reached.
func execRules(n *sitter.Node, s *scope) []finding.Finding {
	switch n.Type() {
	case "exec_statement":
		return []finding.Finding{s.report(ruleExecDirect, n, "exec statement")}
	case "call":
	default:
		return nil
	}

	var out []finding.Finding
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	q := s.qualify(fn)

	switch fn.Type() {
	case "identifier":
		if execBuiltins[q] {
			out = append(out, s.report(ruleExecDirect, n, q))
		} else if isExecBuiltin(q) {
			// from builtins import exec
			out = append(out, s.report(ruleExecAttribute, n, q))
		}
	case "attribute":
		if isExecBuiltin(q) {
			out = append(out, s.report(ruleExecAttribute, n, q))
		}
	case "subscript":
		if isExecBuiltin(q) {
			if rootedInNamespaceCall(s, fn) {
				out = append(out, s.report(ruleExecNamespace, n, q))
			} else {
				out = append(out, s.report(ruleExecSubscript, n, q))
			}
		}
	}

	// getattr(builtins, "exec") is flagged wherever it appears, even when
	// the result is stored before being called.
	if q == "getattr" || q == "builtins.getattr" {
		pos, _ := s.arguments(n)
		if len(pos) >= 2 {
			target := s.qualify(pos[0])
			name, ok := stringValue(pos[1], s.src)
			if ok && builtinNamespaces[target] && execBuiltins[name] {
				out = append(out, s.report(ruleExecGetattr, n, target+"."+name))
			}
		}
	}
	return out
}

// rootedInNamespaceCall reports whether a subscript chain bottoms out in
// globals() or locals().
func rootedInNamespaceCall(s *scope, n *sitter.Node) bool {
	for n != nil && n.Type() == "subscript" {
		value := n.ChildByFieldName("value")
		if isNamespaceCall(s, value) {
			return true
		}
		n = value
	}
	return false
}
