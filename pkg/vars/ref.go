package vars

import (
	"fmt"
	"strings"

	"github.com/cfengine/promise-engine/pkg/types"
)

// DefaultNamespace is substituted whenever a reference's namespace is
// left unset.
const DefaultNamespace = "default"

// specialScopes names the built-in scopes that are never namespace-
// qualified: a reference into them is forced to DefaultNamespace
// regardless of what namespace the caller supplied.
var specialScopes = map[string]struct{}{
	"this":       {},
	"sys":        {},
	"const":      {},
	"match":      {},
	"mon":        {},
	"edit":       {},
	"body":       {},
	"connection": {},
}

// IsSpecialScope reports whether scope is one of the built-in scopes that
// forces a reference to the default namespace.
func IsSpecialScope(scope string) bool {
	_, ok := specialScopes[scope]
	return ok
}

// Parse parses a qualified reference of the form
// namespace:scope.lval[idx1][idx2]..., any part of which may be absent.
func Parse(s string) (types.VarRef, error) {
	return parseWithSeparators(s, ':', '.')
}

// Demangle parses a mangled reference scope#lval... or ns*scope#lval...,
// the inverse of Mangle.
func Demangle(s string) (types.VarRef, error) {
	return parseWithSeparators(s, '*', '#')
}

// parseWithSeparators implements the grammar: find the first '[' (marks
// the end of the name portion), then within the name portion find the
// last occurrence of nsSep (the namespace separator) and, in what
// remains, the first occurrence of scopeSep (the scope separator).
func parseWithSeparators(s string, nsSep, scopeSep byte) (types.VarRef, error) {
	namePart := s
	indexPart := ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		namePart = s[:i]
		indexPart = s[i:]
	}

	namespace := ""
	rest := namePart
	if p := strings.LastIndexByte(namePart, nsSep); p >= 0 {
		namespace = namePart[:p]
		rest = namePart[p+1:]
	}

	scope := ""
	lval := rest
	if q := strings.IndexByte(rest, scopeSep); q >= 0 {
		scope = rest[:q]
		lval = rest[q+1:]
	}

	if lval == "" {
		return types.VarRef{}, fmt.Errorf("vars: empty lval in reference %q", s)
	}

	indices, err := parseIndices(indexPart)
	if err != nil {
		return types.VarRef{}, err
	}

	if IsSpecialScope(scope) {
		namespace = ""
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return types.VarRef{Namespace: namespace, Scope: scope, Lval: lval, Indices: indices}, nil
}

// parseIndices splits a bracketed index list like "[a][b[c]]" into its
// depth-zero elements ("a", "b[c]"), first checking that brackets balance.
func parseIndices(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}

	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("vars: unbalanced index brackets in %q", s)
	}

	var indices []string
	var cur strings.Builder
	level := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '[':
			if level > 0 {
				cur.WriteByte(c)
			}
			level++
		case ']':
			level--
			if level > 0 {
				cur.WriteByte(c)
			} else {
				indices = append(indices, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	return indices, nil
}

// ToString renders ref back to its textual form. When qualified is true
// and ref carries a namespace/scope, the namespace:scope. prefix is
// included; otherwise only lval[idx]... is produced.
func ToString(ref types.VarRef, qualified bool) string {
	var b strings.Builder
	if qualified && ref.Scope != "" {
		ns := ref.Namespace
		if ns == "" {
			ns = DefaultNamespace
		}
		b.WriteString(ns)
		b.WriteByte(':')
		b.WriteString(ref.Scope)
		b.WriteByte('.')
	}
	b.WriteString(ref.Lval)
	for _, idx := range ref.Indices {
		b.WriteByte('[')
		b.WriteString(idx)
		b.WriteByte(']')
	}
	return b.String()
}

// Mangle renders ref into a form with '*' and '#' substituted for ':' and
// '.', suitable for use as an internal identifier (e.g. an iteration
// wheel's variable name) where the reference must no longer look
// qualified.
func Mangle(ref types.VarRef) string {
	suffix := ToString(ref, false)
	if ref.Scope == "" {
		return suffix
	}
	if ref.Namespace != "" && ref.Namespace != DefaultNamespace {
		return fmt.Sprintf("%s*%s#%s", ref.Namespace, ref.Scope, suffix)
	}
	return fmt.Sprintf("%s#%s", ref.Scope, suffix)
}

// IsMangled reports whether s contains '*' or '#' at nesting depth zero,
// outside any $(...)/${...} inner expansion and outside any [...] index —
// the signature of a mangled reference as opposed to an ordinary one.
func IsMangled(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$' && i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{'):
			depth++
			i++
		case c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == '*' || c == '#'):
			return true
		}
	}
	return false
}
