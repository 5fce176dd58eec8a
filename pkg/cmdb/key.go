package cmdb

import "strings"

// splitVarsKey parses a raw pkg/cmdb "vars" key using the same
// namespace/scope/index grammar pkg/vars.Parse uses, but additionally
// reporting whether a namespace and scope were explicitly present —
// needed because the CMDB install rule (spec.md §4.K) defaults the two
// independently of vars.Parse's own "default namespace" normalization.
func splitVarsKey(raw string) (namespace, scope, lvalAndIndex string, hasNamespace, hasScope bool) {
	namePart := raw
	indexPart := ""
	if i := strings.IndexByte(raw, '['); i >= 0 {
		namePart = raw[:i]
		indexPart = raw[i:]
	}

	rest := namePart
	if p := strings.LastIndexByte(namePart, ':'); p >= 0 {
		namespace = namePart[:p]
		rest = namePart[p+1:]
		hasNamespace = true
	}

	lval := rest
	if q := strings.IndexByte(rest, '.'); q >= 0 {
		scope = rest[:q]
		lval = rest[q+1:]
		hasScope = true
	}

	return namespace, scope, lval + indexPart, hasNamespace, hasScope
}

// splitClassKey parses a raw "classes" key as "ns:name" or bare "name",
// per spec.md §4.K ("key may be ns:name or bare name").
func splitClassKey(raw string) (namespace, name string, hasNamespace bool) {
	if p := strings.LastIndexByte(raw, ':'); p >= 0 {
		return raw[:p], raw[p+1:], true
	}
	return "", raw, false
}
