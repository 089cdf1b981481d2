package pyscan

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	spawnMethods     = setOf("run", "call", "check_call", "check_output", "Popen", "system", "popen", "getoutput", "getstatusoutput")
	schedulerPattern = regexp.MustCompile(`(?:^|[\s/;&|'"(])(crontab|systemctl|launchctl|at|schtasks)(?:$|[\s;&|'")])`)
)

// persistRules flags process calls whose command line names a scheduler.
func persistRules(n *sitter.Node, s *scope) []finding.Finding {
	if n.Type() != "call" {
		return nil
	}
	_, method := s.callTarget(n)
	if !spawnMethods[lastComponent(method)] {
		return nil
	}
	args, ok := stringList(s.argument(n, 0, "args"), s.src)
	if !ok {
		return nil
	}
	for _, arg := range args {
		if m := schedulerPattern.FindStringSubmatch(arg); m != nil {
			return []finding.Finding{s.report(rulePersist, n, m[1])}
		}
	}
	return nil
}
