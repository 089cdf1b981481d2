package pyscan

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// stringValue returns the literal text of a string node. f-string
// interpolations are dropped, leaving only the literal segments joined
// together. Implicit concatenation ("a" "b") is joined. Parenthesised
// strings are unwrapped.
func stringValue(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return stringLiteral(n, src), true
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part := n.NamedChild(i)
			if part == nil || part.Type() != "string" {
				continue
			}
			b.WriteString(stringLiteral(part, src))
		}
		return b.String(), true
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return stringValue(n.NamedChild(0), src)
		}
	}
	return "", false
}

func stringLiteral(n *sitter.Node, src []byte) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	raw := string(src[start:end])

	prefixLen := 0
	for prefixLen < len(raw) && raw[prefixLen] != '"' && raw[prefixLen] != '\'' {
		prefixLen++
	}
	prefix := strings.ToLower(raw[:prefixLen])
	rest := raw[prefixLen:]

	quote := ""
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(rest, q) {
			quote = q
			break
		}
	}
	if quote == "" {
		return rest
	}

	bodyStart := start + prefixLen + len(quote)
	bodyEnd := end - len(quote)
	if bodyEnd < bodyStart {
		return ""
	}

	var b strings.Builder
	pos := bodyStart
	if strings.Contains(prefix, "f") {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child == nil || child.Type() != "interpolation" {
				continue
			}
			cs, ce := int(child.StartByte()), int(child.EndByte())
			if cs > pos && cs <= bodyEnd {
				b.Write(src[pos:cs])
			}
			if ce > pos {
				pos = ce
			}
		}
	}
	if pos < bodyEnd {
		b.Write(src[pos:bodyEnd])
	}

	body := b.String()
	if !strings.Contains(prefix, "r") {
		body = unescape(body)
	}
	return body
}

// unescape resolves the common backslash escapes; anything it does not
// recognise is kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// stringList returns the values of a string literal, or of a list/tuple
// whose elements are all string literals.
func stringList(n *sitter.Node, src []byte) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	if s, ok := stringValue(n, src); ok {
		return []string{s}, true
	}
	switch n.Type() {
	case "list", "tuple":
	default:
		return nil, false
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el == nil || el.Type() == "comment" {
			continue
		}
		s, ok := stringValue(el, src)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, len(out) > 0
}

// stringsIn collects every string literal value in the subtree rooted at n.
func stringsIn(n *sitter.Node, src []byte) []string {
	var out []string
	walk(n, func(c *sitter.Node) bool {
		switch c.Type() {
		case "string", "concatenated_string":
			if s, ok := stringValue(c, src); ok {
				out = append(out, s)
			}
			return false
		}
		return true
	})
	return out
}

// isTruthyLiteral reports whether n is the literal True or a non-zero
// integer literal.
func isTruthyLiteral(n *sitter.Node, src []byte) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "true":
		return true
	case "integer":
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Content(src), "_", ""), 0, 64)
		return err == nil && v != 0
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return isTruthyLiteral(n.NamedChild(0), src)
		}
	}
	return false
}
