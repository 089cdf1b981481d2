package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	pickleModules   = setOf("pickle", "cPickle", "_pickle", "dill", "cloudpickle", "joblib")
	pickleFuncs     = setOf("load", "loads", "Unpickler")
	pickleExtra     = setOf("shelve.open", "shelve.Shelf", "shelve.DbfilenameShelf", "pandas.read_pickle")
	yamlLoads       = setOf("yaml.load", "yaml.load_all")
	yamlUnsafeLoads = setOf("yaml.unsafe_load", "yaml.unsafe_load_all")
	safeLoaders     = setOf("SafeLoader", "CSafeLoader", "BaseLoader", "CBaseLoader")
)

func isPickleLoad(name string) bool {
	if pickleExtra[name] {
		return true
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return pickleModules[name[:i]] && pickleFuncs[name[i+1:]]
}

// pickleRules flags deserializers that can execute code.
func pickleRules(n *sitter.Node, s *scope) []finding.Finding {
	if n.Type() != "call" {
		return nil
	}
	names := s.callNames(n)
	for _, name := range names {
		if isPickleLoad(name) {
			return []finding.Finding{s.report(rulePickleLoad, n, name)}
		}
	}
	if name, ok := matchName(names, yamlUnsafeLoads); ok {
		return []finding.Finding{s.report(ruleYAMLLoad, n, name)}
	}
	if name, ok := matchName(names, yamlLoads); ok {
		loader := s.argument(n, 1, "Loader")
		if loader == nil {
			return []finding.Finding{s.report(ruleYAMLLoad, n, name+" without Loader")}
		}
		loaderName := s.qualify(loader)
		if loaderName == "" {
			loaderName = s.text(loader)
		}
		if !safeLoaders[lastComponent(loaderName)] {
			return []finding.Finding{s.report(ruleYAMLLoad, n, name+" with "+loaderName)}
		}
	}
	return nil
}
