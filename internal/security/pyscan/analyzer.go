package pyscan

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// ruleFunc inspects one node and returns the findings it produces.
type ruleFunc func(n *sitter.Node, s *scope) []finding.Finding

type family struct {
	name  string
	check ruleFunc
}

// families run in this order; each sees every node.
var families = []family{
	{FamilyExec, execRules},
	{FamilyEnv, envRules},
	{FamilyProcess, processRules},
	{FamilyFile, fileRules},
	{FamilyPersist, persistRules},
	{FamilyThread, threadRules},
	{FamilyPickle, pickleRules},
}

// Analyze runs every rule family over the module. The alias table is
// built first and shared read-only. Findings are returned in detection
// order: family by family, and within a family in source order. No rule
// short-circuits another.
func Analyze(m *Module) []finding.Finding {
	root := m.Root()
	s := &scope{
		src:     m.Source(),
		aliases: BuildAliasTable(root, m.Source()),
	}
	nodes := namedNodes(root)

	var findings []finding.Finding
	for _, f := range families {
		for _, n := range nodes {
			findings = append(findings, f.check(n, s)...)
		}
	}
	return findings
}
