package iteration

import "strings"

// atom is one top-level $(...)/${...} occurrence found by splitTopAtoms.
type atom struct {
	inner string // text between the delimiters, unprocessed
	open  byte   // '(' or '{'
}

// segment is either a literal run of text or a top-level atom.
type segment struct {
	literal string
	atom    atom
	isAtom  bool
}

// splitTopAtoms splits s into literal and atom segments at nesting depth
// zero, tracking depth across further $(...)/${...} occurrences the way
// vars.IsMangled does (either closer decrements depth, regardless of which
// opener introduced it — this engine never needs to tell the two delimiter
// styles apart once nested).
func splitTopAtoms(s string) []segment {
	var segs []segment
	var lit strings.Builder

	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{') {
			open := s[i+1]
			depth := 1
			j := i + 2
			for j < len(s) && depth > 0 {
				if s[j] == '$' && j+1 < len(s) && (s[j+1] == '(' || s[j+1] == '{') {
					depth++
					j += 2
					continue
				}
				if s[j] == ')' || s[j] == '}' {
					depth--
				}
				j++
			}
			if depth != 0 {
				// Unterminated: treat the rest of the string as literal.
				lit.WriteString(s[i:])
				i = len(s)
				break
			}

			if lit.Len() > 0 {
				segs = append(segs, segment{literal: lit.String()})
				lit.Reset()
			}
			segs = append(segs, segment{isAtom: true, atom: atom{inner: s[i+2 : j-1], open: open}})
			i = j
			continue
		}
		lit.WriteByte(s[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String()})
	}
	return segs
}

func closeFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ')'
}

// expand substitutes every $(...)/${...} atom in s with lookup's result,
// expanding nested atoms innermost-first. An atom lookup misses leaves the
// atom in the output verbatim (with its original delimiters).
func expand(s string, lookup func(string) (string, bool)) string {
	segs := splitTopAtoms(s)
	var b strings.Builder
	for _, seg := range segs {
		if !seg.isAtom {
			b.WriteString(seg.literal)
			continue
		}
		inner := expand(seg.atom.inner, lookup)
		if val, ok := lookup(inner); ok {
			b.WriteString(val)
			continue
		}
		b.WriteByte('$')
		b.WriteByte(seg.atom.open)
		b.WriteString(inner)
		b.WriteByte(closeFor(seg.atom.open))
	}
	return b.String()
}
