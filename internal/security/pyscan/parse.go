// Package pyscan analyses Python source for dangerous operations.
//
// Source is parsed with tree-sitter, import aliases are collected in a single
// forward pass, and seven independent rule families are folded over every
// node of the tree. Nothing here executes or persists anything.
package pyscan

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned by Parse when the source does not parse cleanly.
// The returned Module is still usable: tree-sitter recovers from errors.
var ErrSyntax = errors.New("python syntax error")

// Module is a parsed source unit.
type Module struct {
	src  []byte
	tree *sitter.Tree
}

// Parse parses src as a Python module. A new parser is created per call,
// so Parse is safe for concurrent use.
func Parse(src []byte) (*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}

	m := &Module{src: src, tree: tree}
	if root := tree.RootNode(); root.HasError() {
		return m, fmt.Errorf("%w near line %d", ErrSyntax, firstErrorLine(root))
	}
	return m, nil
}

// Root returns the module node.
func (m *Module) Root() *sitter.Node {
	return m.tree.RootNode()
}

// Source returns the bytes the module was parsed from.
func (m *Module) Source() []byte {
	return m.src
}

// Close releases the underlying tree.
func (m *Module) Close() {
	if m != nil && m.tree != nil {
		m.tree.Close()
	}
}

func firstErrorLine(root *sitter.Node) int {
	line := 0
	walk(root, func(n *sitter.Node) bool {
		if line != 0 {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return false
		}
		return n.HasError()
	})
	if line == 0 {
		line = 1
	}
	return line
}

// walk visits n and its descendants depth-first in source order. visit
// returns false to skip a node's children. An explicit stack keeps deep
// nesting off the goroutine stack.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		for i := int(cur.ChildCount()) - 1; i >= 0; i-- {
			if child := cur.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// namedNodes flattens the tree into its named nodes in source order.
func namedNodes(root *sitter.Node) []*sitter.Node {
	var nodes []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if n.IsNamed() {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}
