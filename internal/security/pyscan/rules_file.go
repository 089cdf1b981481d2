package pyscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

var (
	protectedPaths = NewProtectedPathChecker()

	shutilCopies = setOf("shutil.move", "shutil.copy", "shutil.copy2", "shutil.copytree", "shutil.copyfile")
	openCalls    = setOf("open", "builtins.open", "io.open", "codecs.open")
	pathWrites   = setOf("write_text", "write_bytes")
	pathDeletes  = setOf("unlink", "rmdir")
	osDeletes    = setOf("os.remove", "os.unlink", "os.rmdir", "os.removedirs")
	permChanges  = setOf("os.chmod", "os.chown", "os.lchown", "os.lchmod")
)

// fileRules flags destructive or protected-path file operations.
func fileRules(n *sitter.Node, s *scope) []finding.Finding {
	if n.Type() != "call" {
		return nil
	}
	names := s.callNames(n)

	if name, ok := matchName(names, setOf("shutil.rmtree")); ok {
		return []finding.Finding{s.report(ruleFileRmtree, n, name)}
	}

	if name, ok := matchName(names, shutilCopies); ok {
		if p, ok := s.protectedLiteral(s.argument(n, 1, "dst")); ok {
			return []finding.Finding{s.report(ruleFileCopy, n, name+" -> "+p)}
		}
		return nil
	}

	if _, ok := matchName(names, openCalls); ok {
		mode, ok := stringValue(s.argument(n, 1, "mode"), s.src)
		if !ok || !strings.ContainsAny(mode, "wax+") {
			return nil
		}
		if p, ok := s.protectedLiteral(s.argument(n, 0, "file")); ok {
			return []finding.Finding{s.report(ruleFileOpen, n, p)}
		}
		return nil
	}

	if name, ok := matchName(names, permChanges); ok {
		if p, ok := s.protectedLiteral(s.argument(n, 0, "path")); ok {
			return []finding.Finding{s.report(ruleFilePerms, n, name+" "+p)}
		}
		return nil
	}

	if name, ok := matchName(names, osDeletes); ok {
		return []finding.Finding{s.report(ruleFileDelete, n, name)}
	}

	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return nil
	}
	_, method := s.callTarget(n)
	switch {
	case pathWrites[method]:
		if p, ok := s.protectedReceiver(fn.ChildByFieldName("object")); ok {
			return []finding.Finding{s.report(ruleFilePathWrite, n, method+" "+p)}
		}
	case pathDeletes[method]:
		return []finding.Finding{s.report(ruleFileDelete, n, method)}
	}
	return nil
}

// protectedLiteral checks a path argument against the protected set. A
// string literal is checked whole (f-string literal segments count); a
// path assembled by a call such as os.path.join or by + is checked piece
// by piece.
func (s *scope) protectedLiteral(n *sitter.Node) (string, bool) {
	if v, ok := stringValue(n, s.src); ok {
		if !protectedPaths.IsProtected(v) {
			return "", false
		}
		return v, true
	}
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "call", "binary_operator":
		return protectedPaths.AnyProtected(stringsIn(n, s.src))
	}
	return "", false
}

// protectedReceiver inspects a Path-like receiver expression such as
// Path("/etc/hosts") or Path.home() / ".bashrc". Literals joined onto a
// home() or expanduser() expression are treated as home-relative.
func (s *scope) protectedReceiver(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	literals := stringsIn(n, s.src)
	text := s.text(n)
	fromHome := strings.Contains(text, "home()") || strings.Contains(text, "expanduser")
	for _, lit := range literals {
		if protectedPaths.IsProtected(lit) {
			return lit, true
		}
		if fromHome {
			homeLit := "~/" + strings.TrimPrefix(lit, "/")
			if protectedPaths.IsProtected(homeLit) {
				return homeLit, true
			}
		}
	}
	return "", false
}
