package classes

import "strings"

// Canonify replaces every run of characters outside [A-Za-z0-9_] with a
// single underscore, the transform applied to class identifiers that
// contain characters the grammar doesn't accept directly (e.g. values
// pulled from a file path used to name a class).
func Canonify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	inRun := false
	for _, r := range name {
		if isCanonChar(r) {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	return b.String()
}

func isCanonChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	default:
		return false
	}
}

// ValidName reports whether name contains only characters the grammar
// accepts without canonicalization.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isCanonChar(r) {
			return false
		}
	}
	return true
}
