package iteration

import (
	"strings"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/cfengine/promise-engine/pkg/vars"
)

// Bindings resolves a parsed variable reference against whatever
// combination of variable table and class context the caller has staged
// for this promise.
type Bindings interface {
	ResolveVar(ref types.VarRef) (types.RVal, bool)
}

// Wheel is one iteration axis: a list-valued reference and the engine's
// current position within its enumerated values.
type Wheel struct {
	VarUnexpanded string
	VarExpanded   string
	Values        []string
	Position      int
}

// Iterator walks every combination of a promiser's wheels in odometer
// order. Obtain one with Prepare; call Next until it reports no more.
type Iterator struct {
	promiser string
	bindings Bindings
	wheels   []*Wheel
	seen     map[string]struct{}

	started   bool
	exhausted bool
}

// Prepare scans promiser for $(...)/${...} references, recursively
// preparing any nested reference first, and builds one wheel per reference
// that currently resolves to a scalar list. A reference that resolves to a
// scalar, or that does not resolve at all, contributes no wheel — it is
// substituted (or left literal) at emission time instead.
func Prepare(promiser string, bindings Bindings) *Iterator {
	it := &Iterator{promiser: promiser, bindings: bindings, seen: make(map[string]struct{})}
	it.collect(promiser)
	return it
}

func (it *Iterator) collect(s string) {
	for _, seg := range splitTopAtoms(s) {
		if !seg.isAtom {
			continue
		}
		it.collect(seg.atom.inner)

		if _, dup := it.seen[seg.atom.inner]; dup {
			continue
		}
		it.seen[seg.atom.inner] = struct{}{}

		varExpanded := expand(seg.atom.inner, it.lookup)
		ref, err := vars.Parse(varExpanded)
		if err != nil {
			continue
		}
		val, ok := it.bindings.ResolveVar(ref)
		if !ok || !val.IsScalarList() {
			continue
		}
		it.wheels = append(it.wheels, &Wheel{
			VarUnexpanded: seg.atom.inner,
			VarExpanded:   varExpanded,
			Values:        val.StringList(),
			Position:      0,
		})
	}
}

// lookup is the substitution function shared by wheel collection, wheel
// re-evaluation, and final expansion: a wheel's current value takes
// precedence over re-resolving the variable table, so every emission
// reflects this iterator's own position rather than a value that may have
// changed underneath it since Prepare ran.
func (it *Iterator) lookup(name string) (string, bool) {
	for _, w := range it.wheels {
		if w.VarExpanded == name {
			if w.Position < 0 || w.Position >= len(w.Values) {
				return "", false
			}
			return w.Values[w.Position], true
		}
	}

	ref, err := vars.Parse(name)
	if err != nil {
		return "", false
	}
	val, ok := it.bindings.ResolveVar(ref)
	if !ok || val.Kind != types.RValScalar {
		return "", false
	}
	return val.Scalar, true
}

// Wheels exposes the current wheel set, primarily for tests and
// diagnostics; callers must not mutate the returned slice or its elements.
func (it *Iterator) Wheels() []*Wheel {
	return it.wheels
}

// HasMore reports whether a further call to Next can still produce an
// expansion.
func (it *Iterator) HasMore() bool {
	return !it.exhausted
}

// Next returns the next concrete expansion of the promiser, or ok=false
// once every combination has been emitted. A combination in which any
// wheel re-evaluates to an empty list is skipped (not emitted) but still
// counts as an advance.
func (it *Iterator) Next() (string, bool) {
	for {
		if it.exhausted {
			return "", false
		}
		if !it.started {
			it.started = true
		} else if !it.advance() {
			it.exhausted = true
			return "", false
		}

		if it.anyWheelEmpty() {
			continue
		}
		return expand(it.promiser, it.lookup), true
	}
}

func (it *Iterator) anyWheelEmpty() bool {
	for _, w := range it.wheels {
		if len(w.Values) == 0 {
			return true
		}
	}
	return false
}

// advance increments the rightmost (last-collected) wheel, carrying into
// earlier wheels on overflow. Reports false once the leftmost wheel
// overflows, meaning every combination has been produced.
func (it *Iterator) advance() bool {
	for i := len(it.wheels) - 1; i >= 0; i-- {
		w := it.wheels[i]
		w.Position++
		if w.Position < len(w.Values) {
			it.reevaluateDependents(i)
			return true
		}
		w.Position = 0
		it.reevaluateDependents(i)
	}
	return false
}

// reevaluateDependents re-resolves every wheel to the right of i whose
// unexpanded text mentions wheel i's unexpanded text, since that wheel's
// concrete variable name may depend on i's new position. A change in the
// re-evaluated list's length resets that wheel's position to 0; an
// unchanged length preserves the current position even if the values
// themselves differ.
func (it *Iterator) reevaluateDependents(i int) {
	changed := it.wheels[i].VarUnexpanded
	for j := i + 1; j < len(it.wheels); j++ {
		w := it.wheels[j]
		if !strings.Contains(w.VarUnexpanded, changed) {
			continue
		}

		newExpanded := expand(w.VarUnexpanded, it.lookup)
		var newValues []string
		if ref, err := vars.Parse(newExpanded); err == nil {
			if val, ok := it.bindings.ResolveVar(ref); ok && val.IsScalarList() {
				newValues = val.StringList()
			}
		}

		w.VarExpanded = newExpanded
		if len(newValues) != len(w.Values) {
			w.Position = 0
		}
		w.Values = newValues
	}
}

// Expand substitutes every $(...)/${...} reference in s using bindings,
// without creating wheels — the non-iterating counterpart used for
// attribute values that aren't the subject of the iteration being stepped.
func Expand(s string, bindings Bindings) string {
	it := &Iterator{bindings: bindings}
	return expand(s, it.lookup)
}
