package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// scope is the read-only context every rule sees.
type scope struct {
	src     []byte
	aliases *AliasTable
}

func (s *scope) text(n *sitter.Node) string {
	return n.Content(s.src)
}

func (s *scope) line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (s *scope) report(rule finding.Rule, n *sitter.Node, detail string) finding.Finding {
	return rule.At(s.line(n), s.text(n), detail)
}

// qualify resolves an expression to a fully-qualified dotted name, or ""
// when it cannot be determined statically. Besides names and attribute
// chains it understands the usual indirections:
//
//	__import__("os"), importlib.import_module("os")  -> os
//	getattr(X, "name")                                -> X.name
//	X.__dict__["name"], vars(X)["name"]               -> X.name
//	globals()["name"], locals()["name"]               -> name
func (s *scope) qualify(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return s.aliases.Resolve(s.text(n))
	case "attribute":
		attr := n.ChildByFieldName("attribute")
		if attr == nil {
			return ""
		}
		base := s.qualify(n.ChildByFieldName("object"))
		if base == "" {
			return ""
		}
		return base + "." + s.text(attr)
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return s.qualify(n.NamedChild(0))
		}
	case "call":
		return s.qualifyCall(n)
	case "subscript":
		return s.qualifySubscript(n)
	}
	return ""
}

func (s *scope) qualifyCall(n *sitter.Node) string {
	fn := s.qualify(n.ChildByFieldName("function"))
	pos, _ := s.arguments(n)
	switch fn {
	case "__import__", "builtins.__import__", "importlib.import_module":
		if len(pos) > 0 {
			if mod, ok := stringValue(pos[0], s.src); ok {
				return mod
			}
		}
	case "getattr", "builtins.getattr":
		if len(pos) >= 2 {
			base := s.qualify(pos[0])
			attr, ok := stringValue(pos[1], s.src)
			if base != "" && ok {
				return base + "." + attr
			}
		}
	}
	return ""
}

func (s *scope) qualifySubscript(n *sitter.Node) string {
	key, ok := stringValue(n.ChildByFieldName("subscript"), s.src)
	if !ok {
		return ""
	}
	value := n.ChildByFieldName("value")
	if value == nil {
		return ""
	}
	if isNamespaceCall(s, value) {
		return s.aliases.Resolve(key)
	}
	if value.Type() == "attribute" {
		if attr := value.ChildByFieldName("attribute"); attr != nil && s.text(attr) == "__dict__" {
			value = value.ChildByFieldName("object")
		}
	}
	if value != nil && value.Type() == "call" && s.qualify(value.ChildByFieldName("function")) == "vars" {
		if pos, _ := s.arguments(value); len(pos) == 1 {
			value = pos[0]
		}
	}
	base := s.qualify(value)
	if base == "" {
		return ""
	}
	return base + "." + key
}

// isNamespaceCall reports whether n is globals() or locals().
func isNamespaceCall(s *scope, n *sitter.Node) bool {
	if n == nil || n.Type() != "call" {
		return false
	}
	switch s.qualify(n.ChildByFieldName("function")) {
	case "globals", "locals", "builtins.globals", "builtins.locals":
		return true
	}
	return false
}

// arguments splits a call's argument list into positional arguments and
// keyword arguments by name. Splats are ignored.
func (s *scope) arguments(call *sitter.Node) ([]*sitter.Node, map[string]*sitter.Node) {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return nil, nil
	}
	var pos []*sitter.Node
	var kw map[string]*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a == nil {
			continue
		}
		switch a.Type() {
		case "keyword_argument":
			name := a.ChildByFieldName("name")
			value := a.ChildByFieldName("value")
			if name == nil || value == nil {
				continue
			}
			if kw == nil {
				kw = make(map[string]*sitter.Node)
			}
			kw[s.text(name)] = value
		case "list_splat", "dictionary_splat", "comment":
		default:
			pos = append(pos, a)
		}
	}
	return pos, kw
}

// argument returns the positional argument at index, falling back to the
// named keyword.
func (s *scope) argument(call *sitter.Node, index int, keyword string) *sitter.Node {
	pos, kw := s.arguments(call)
	if index < len(pos) {
		return pos[index]
	}
	if keyword != "" {
		return kw[keyword]
	}
	return nil
}

// callNames returns the names a call target may refer to: its qualified
// name, plus M.name for every star-imported module M when the target is a
// bare name no import binds.
func (s *scope) callNames(call *sitter.Node) []string {
	return s.exprNames(call.ChildByFieldName("function"))
}

func (s *scope) exprNames(n *sitter.Node) []string {
	q := s.qualify(n)
	if q == "" {
		return nil
	}
	names := []string{q}
	if n.Type() == "identifier" && !s.aliases.Known(q) {
		for _, m := range s.aliases.StarModules() {
			names = append(names, m+"."+q)
		}
	}
	return names
}

// matchName returns the first candidate that is in the target set.
func matchName(candidates []string, targets map[string]bool) (string, bool) {
	for _, c := range candidates {
		if targets[c] {
			return c, true
		}
	}
	return "", false
}

// callTarget splits a call into (receiver, method). For obj.method(...)
// the receiver is obj's qualified name (or its source text when it cannot
// be qualified); for a bare f(...) the receiver is empty and the method is
// the alias-resolved name.
func (s *scope) callTarget(call *sitter.Node) (receiver, method string) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", ""
	}
	switch fn.Type() {
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil || obj == nil {
			return "", ""
		}
		receiver = s.qualify(obj)
		if receiver == "" {
			receiver = strings.Join(strings.Fields(s.text(obj)), "")
		}
		return receiver, s.text(attr)
	case "identifier":
		return "", s.aliases.Resolve(s.text(fn))
	}
	return "", ""
}

func lastComponent(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
