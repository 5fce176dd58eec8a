package vars

import (
	"sort"
	"strings"
	"sync"

	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Table is the Variable Table: a set of bindings keyed by
// (namespace, scope, lval, indices).
type Table struct {
	mu   sync.RWMutex
	vars map[string]*types.Variable
}

// NewTable returns an empty variable table.
func NewTable() *Table {
	return &Table{vars: make(map[string]*types.Variable)}
}

func key(ref types.VarRef) string {
	var b strings.Builder
	b.WriteString(ref.Namespace)
	b.WriteByte(0)
	b.WriteString(ref.Scope)
	b.WriteByte(0)
	b.WriteString(ref.Lval)
	b.WriteByte(0)
	b.WriteString(strings.Join(ref.Indices, "\x00"))
	return b.String()
}

// Put installs a binding, forcing the namespace to DefaultNamespace when
// ref.Scope names a special scope regardless of what namespace was
// supplied. Reports whether an existing binding was replaced.
func (t *Table) Put(ref types.VarRef, value types.RVal, typ types.VariableType, tags map[string]struct{}, origin string) bool {
	if IsSpecialScope(ref.Scope) {
		ref.Namespace = DefaultNamespace
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(ref)
	_, replaced := t.vars[k]
	t.vars[k] = &types.Variable{Ref: ref, Value: value, Type: typ, Tags: tags, Origin: origin}
	metrics.VariablesSetTotal.Inc()
	return replaced
}

// Get looks up ref. The returned pointer is never mutated by the table
// after being returned, so callers may hold onto it.
func (t *Table) Get(ref types.VarRef) (*types.Variable, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vars[key(ref)]
	return v, ok
}

// Remove deletes the binding for ref, reporting whether one existed.
func (t *Table) Remove(ref types.VarRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(ref)
	_, ok := t.vars[k]
	delete(t.vars, k)
	return ok
}

// filter holds the optional prefix fields Count/Clear/Iter match against;
// a nil pointer field means "do not filter on this part of the key".
type filter struct {
	namespace *string
	scope     *string
	lval      *string
}

func matches(ref types.VarRef, f filter) bool {
	if f.namespace != nil && ref.Namespace != *f.namespace {
		return false
	}
	if f.scope != nil && ref.Scope != *f.scope {
		return false
	}
	if f.lval != nil && ref.Lval != *f.lval {
		return false
	}
	return true
}

// Count returns the number of bindings whose namespace/scope/lval match
// the supplied (possibly nil) filters.
func (t *Table) Count(namespace, scope, lval *string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	f := filter{namespace, scope, lval}
	for _, v := range t.vars {
		if matches(v.Ref, f) {
			n++
		}
	}
	return n
}

// Clear removes every binding matching the filters, reporting whether
// anything was removed.
func (t *Table) Clear(namespace, scope, lval *string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := filter{namespace, scope, lval}
	removed := false
	for k, v := range t.vars {
		if matches(v.Ref, f) {
			delete(t.vars, k)
			removed = true
		}
	}
	return removed
}

// Iter returns every binding matching the filters (namespace, scope, lval,
// and an indices prefix), sorted by key for deterministic ordering across
// calls within one run.
func (t *Table) Iter(namespace, scope, lval *string, indicesPrefix []string) []*types.Variable {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f := filter{namespace, scope, lval}
	var out []*types.Variable
	for _, v := range t.vars {
		if !matches(v.Ref, f) {
			continue
		}
		if !hasIndexPrefix(v.Ref.Indices, indicesPrefix) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Ref) < key(out[j].Ref) })
	return out
}

func hasIndexPrefix(indices, prefix []string) bool {
	if len(prefix) > len(indices) {
		return false
	}
	for i, p := range prefix {
		if indices[i] != p {
			return false
		}
	}
	return true
}

// CopyLocalized returns a new table holding every variable whose namespace
// and scope equal ns and scope, rewritten to scope "this" with no
// namespace — used to stage bundle-parameter bindings into a call frame.
func (t *Table) CopyLocalized(ns, scope string) *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := NewTable()
	for _, v := range t.vars {
		if v.Ref.Namespace != ns || v.Ref.Scope != scope {
			continue
		}
		localRef := types.VarRef{
			Namespace: "",
			Scope:     "this",
			Lval:      v.Ref.Lval,
			Indices:   v.Ref.Indices,
		}
		out.vars[key(localRef)] = &types.Variable{
			Ref:    localRef,
			Value:  v.Value,
			Type:   v.Type,
			Tags:   v.Tags,
			Origin: v.Origin,
		}
	}
	return out
}
