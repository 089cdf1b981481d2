package pyscan

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	environNames   = setOf("os.environ", "os.environb", "posix.environ")
	environMethods = setOf("update", "setdefault", "pop", "clear", "popitem", "__setitem__", "__delitem__")
	putenvNames    = setOf("os.putenv", "os.unsetenv", "posix.putenv", "posix.unsetenv")
)

// envRules flags writes to the process environment.
func envRules(n *sitter.Node, s *scope) []finding.Finding {
	switch n.Type() {
	case "assignment", "augmented_assignment":
		var out []finding.Finding
		for _, target := range assignTargets(n.ChildByFieldName("left")) {
			if s.isEnvironItem(target) || (target.Type() != "subscript" && environNames[s.qualify(target)]) {
				out = append(out, s.report(ruleEnvAssign, n, s.text(target)))
			}
		}
		return out

	case "delete_statement":
		var out []finding.Finding
		for i := 0; i < int(n.NamedChildCount()); i++ {
			for _, target := range assignTargets(n.NamedChild(i)) {
				if s.isEnvironItem(target) {
					out = append(out, s.report(ruleEnvDelete, n, s.text(target)))
				}
			}
		}
		return out

	case "call":
		if name, ok := matchName(s.callNames(n), putenvNames); ok {
			return []finding.Finding{s.report(ruleEnvPutenv, n, name)}
		}
		receiver, method := s.callTarget(n)
		if environNames[receiver] && environMethods[method] {
			return []finding.Finding{s.report(ruleEnvMethod, n, receiver+"."+method)}
		}
	}
	return nil
}

func (s *scope) isEnvironItem(n *sitter.Node) bool {
	if n == nil || n.Type() != "subscript" {
		return false
	}
	value := n.ChildByFieldName("value")
	return environNames[s.qualify(value)]
}

// assignTargets flattens tuple/list targets into their elements.
func assignTargets(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list", "parenthesized_expression":
		var out []*sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, assignTargets(n.NamedChild(i))...)
		}
		return out
	}
	return []*sitter.Node{n}
}
