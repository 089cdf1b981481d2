package pyscan

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	threadClasses = map[string]finding.Rule{
		"threading.Thread":                             ruleThreadThread,
		"threading.Timer":                              ruleThreadTimer,
		"concurrent.futures.ThreadPoolExecutor":        ruleThreadPool,
		"concurrent.futures.thread.ThreadPoolExecutor": ruleThreadPool,
		"multiprocessing.pool.ThreadPool":              ruleThreadMPPool,
		"multiprocessing.dummy.Pool":                   ruleThreadMPPool,
		"_thread.start_new_thread":                     ruleThreadLowLevel,
		"_thread.start_new":                            ruleThreadLowLevel,
		"thread.start_new_thread":                      ruleThreadLowLevel,
	}
	threadModules = setOf("threading", "_thread", "thread")
	// from-imports of these modules are flagged when they bring in a
	// thread class (or everything).
	threadClassModules = map[string]map[string]bool{
		"threading":                 setOf("Thread", "Timer"),
		"_thread":                   setOf("start_new_thread", "start_new"),
		"concurrent.futures":        setOf("ThreadPoolExecutor"),
		"concurrent.futures.thread": setOf("ThreadPoolExecutor"),
		"multiprocessing.pool":      setOf("ThreadPool"),
		"multiprocessing.dummy":     setOf("Pool"),
	}
)

// threadRules flags background threads, which corrupt the host UI
// toolkit's single-thread affinity. Instantiation is CRITICAL; import
// alone is HIGH.
func threadRules(n *sitter.Node, s *scope) []finding.Finding {
	switch n.Type() {
	case "call":
		for _, name := range s.callNames(n) {
			if rule, ok := threadClasses[name]; ok {
				return []finding.Finding{s.report(rule, n, name)}
			}
		}

	case "import_statement":
		var out []finding.Finding
		for _, imp := range importedNames(n, s.src) {
			if threadModules[imp.name] {
				out = append(out, s.report(ruleThreadImport, n, imp.name))
			}
		}
		return out

	case "import_from_statement":
		module := fromModule(n, s.src)
		classes, ok := threadClassModules[module]
		if !ok {
			return nil
		}
		if hasWildcard(n) {
			return []finding.Finding{s.report(ruleThreadFrom, n, module+".*")}
		}
		for _, imp := range importedNames(n, s.src) {
			if classes[imp.name] {
				return []finding.Finding{s.report(ruleThreadFrom, n, module+"."+imp.name)}
			}
		}

	case "class_definition":
		bases := n.ChildByFieldName("superclasses")
		if bases == nil {
			return nil
		}
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			base := bases.NamedChild(i)
			if base == nil || base.Type() == "keyword_argument" {
				continue
			}
			for _, name := range s.exprNames(base) {
				if name == "threading.Thread" || name == "threading.Timer" {
					return []finding.Finding{s.report(ruleThreadSubclass, n, name)}
				}
			}
		}
	}
	return nil
}
