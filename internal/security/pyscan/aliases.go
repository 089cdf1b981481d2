package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// AliasTable maps local names to the fully-qualified names they were
// imported as. It is built once per scan and read-only afterwards.
type AliasTable struct {
	modules map[string]string // import X as Y:      Y -> X
	symbols map[string]string // from M import N as Z: Z -> M.N
	stars   []string          // from M import *
}

// NewAliasTable returns an empty table.
func NewAliasTable() *AliasTable {
	return &AliasTable{
		modules: make(map[string]string),
		symbols: make(map[string]string),
	}
}

// BuildAliasTable records every import statement in the tree, top to
// bottom. Later bindings of the same name win.
func BuildAliasTable(root *sitter.Node, src []byte) *AliasTable {
	t := NewAliasTable()
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			t.addImport(n, src)
			return false
		case "import_from_statement":
			t.addFromImport(n, src)
			return false
		}
		return true
	})
	return t
}

func (t *AliasTable) addImport(n *sitter.Node, src []byte) {
	for _, imp := range importedNames(n, src) {
		if imp.alias != "" {
			t.modules[imp.alias] = imp.name
			continue
		}
		t.modules[imp.name] = imp.name
		// import os.path binds "os".
		if head, _, ok := strings.Cut(imp.name, "."); ok {
			t.modules[head] = head
		}
	}
}

func (t *AliasTable) addFromImport(n *sitter.Node, src []byte) {
	module := fromModule(n, src)
	if module == "" {
		return
	}
	if hasWildcard(n) {
		t.stars = append(t.stars, module)
	}
	for _, imp := range importedNames(n, src) {
		local := imp.alias
		if local == "" {
			local = imp.name
		}
		t.symbols[local] = module + "." + imp.name
	}
}

// Resolve returns the fully-qualified name for a local name: the symbol
// alias if present, else the module alias, else the name unchanged.
func (t *AliasTable) Resolve(name string) string {
	if q, ok := t.symbols[name]; ok {
		return q
	}
	if q, ok := t.modules[name]; ok {
		return q
	}
	return name
}

// Known reports whether name is bound by any import.
func (t *AliasTable) Known(name string) bool {
	_, sym := t.symbols[name]
	_, mod := t.modules[name]
	return sym || mod
}

// IsFromModule reports whether name resolves to module or to something
// inside it.
func (t *AliasTable) IsFromModule(name, module string) bool {
	resolved := t.Resolve(name)
	return resolved == module || strings.HasPrefix(resolved, module+".")
}

// StarModules returns the modules imported with "from M import *", in
// import order.
func (t *AliasTable) StarModules() []string {
	return append([]string(nil), t.stars...)
}

type importedName struct {
	name  string
	alias string
}

// importedNames returns the names bound by an import or from-import
// statement, skipping the from-import's module name.
func importedNames(n *sitter.Node, src []byte) []importedName {
	var out []importedName
	module := n.ChildByFieldName("module_name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if module != nil && child.StartByte() == module.StartByte() && child.EndByte() == module.EndByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			out = append(out, importedName{name: dottedName(child, src)})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil {
				continue
			}
			imp := importedName{name: dottedName(name, src)}
			if alias != nil {
				imp.alias = alias.Content(src)
			}
			out = append(out, imp)
		}
	}
	return out
}

func fromModule(n *sitter.Node, src []byte) string {
	module := n.ChildByFieldName("module_name")
	if module == nil {
		return ""
	}
	return dottedName(module, src)
}

func hasWildcard(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil && child.Type() == "wildcard_import" {
			return true
		}
	}
	return false
}

// dottedName renders a dotted_name (or relative_import) without
// whitespace or comments.
func dottedName(n *sitter.Node, src []byte) string {
	return strings.Join(strings.Fields(n.Content(src)), "")
}

// importModules returns the modules an import statement touches: every
// imported module for "import", the source module for "from ... import".
func importModules(n *sitter.Node, src []byte) []string {
	switch n.Type() {
	case "import_statement":
		var mods []string
		for _, imp := range importedNames(n, src) {
			mods = append(mods, imp.name)
		}
		return mods
	case "import_from_statement":
		if m := fromModule(n, src); m != "" {
			return []string{m}
		}
	}
	return nil
}
