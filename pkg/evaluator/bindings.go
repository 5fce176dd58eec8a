package evaluator

import (
	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/cfengine/promise-engine/pkg/vars"
)

// FrameBindings resolves a variable reference against the variable table,
// preferring a binding local to the bundle currently being evaluated over
// the same lval looked up with whatever scope the reference literally
// carried (typically none, for an unqualified "$(x)"). This implements the
// common case of an unqualified reference inside a bundle meaning "this
// bundle's own parameter or binding" without requiring every promise in
// the policy to spell out its own bundle name.
type FrameBindings struct {
	Vars          *vars.Table
	CurrentBundle string
}

// ResolveVar implements iteration.Bindings.
func (b FrameBindings) ResolveVar(ref types.VarRef) (types.RVal, bool) {
	if ref.Scope == "" && b.CurrentBundle != "" {
		local := ref
		local.Scope = b.CurrentBundle
		if v, ok := b.Vars.Get(local); ok {
			return v.Value, true
		}
	}
	if v, ok := b.Vars.Get(ref); ok {
		return v.Value, true
	}
	return types.RVal{}, false
}
