package pyscan

import (
	"path"
	"regexp"
	"strings"
)

// ProtectedPathChecker matches literal path strings against system
// directories and home configuration files. It is a string heuristic:
// paths assembled at run time are not seen.
type ProtectedPathChecker struct {
	systemDirs []string
	configDirs []string
	dotfiles   map[string]bool
}

var homeDirPattern = regexp.MustCompile(`^/(?:root|home/[^/]+|Users/[^/]+)/\.`)

// NewProtectedPathChecker creates a checker with the default protected set.
func NewProtectedPathChecker() *ProtectedPathChecker {
	return &ProtectedPathChecker{
		systemDirs: []string{"/etc", "/var", "/usr", "/bin", "/sbin"},
		configDirs: []string{"/.ssh", "/.config", "/.gnupg", "/.aws", "/.kube", "/.docker", "/.local/bin"},
		dotfiles: setOf(
			".bashrc", ".bash_profile", ".bash_login", ".bash_logout", ".profile",
			".zshrc", ".zprofile", ".zshenv", ".zlogin", ".cshrc", ".tcshrc", ".login",
		),
	}
}

// IsProtected reports whether p names a protected location.
func (pc *ProtectedPathChecker) IsProtected(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" {
		return false
	}
	p = strings.ReplaceAll(p, `\`, "/")

	if rest, ok := homeRelative(p); ok {
		// Any dotfile or dot-directory directly under home.
		return strings.HasPrefix(rest, "/.")
	}

	if strings.HasPrefix(p, "/") {
		clean := path.Clean(p)
		for _, dir := range pc.systemDirs {
			if clean == dir || strings.HasPrefix(clean, dir+"/") {
				return true
			}
		}
		if homeDirPattern.MatchString(clean) {
			return true
		}
	}

	slashed := "/" + strings.TrimPrefix(p, "/")
	for _, dir := range pc.configDirs {
		if strings.Contains(slashed+"/", dir+"/") {
			return true
		}
	}
	return pc.dotfiles[path.Base(p)]
}

// AnyProtected returns the first protected path among paths.
func (pc *ProtectedPathChecker) AnyProtected(paths []string) (string, bool) {
	for _, p := range paths {
		if pc.IsProtected(p) {
			return p, true
		}
	}
	return "", false
}

// homeRelative strips a leading home reference (~, $HOME, ${HOME}) and
// returns the remainder.
func homeRelative(p string) (string, bool) {
	for _, prefix := range []string{"${HOME}", "$HOME", "~"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			if rest == "" || strings.HasPrefix(rest, "/") {
				return rest, true
			}
		}
	}
	return "", false
}
