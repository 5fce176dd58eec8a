package evaluator

import (
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/cfengine/promise-engine/pkg/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBindingsPrefersBundleLocalOverLiteralScope(t *testing.T) {
	table := vars.NewTable()

	globalRef, err := vars.Parse("hosts")
	require.NoError(t, err)
	table.Put(globalRef, types.ScalarRVal("global-value"), types.TypeScalar, nil, "")

	localRef := globalRef
	localRef.Scope = "mybundle"
	table.Put(localRef, types.ScalarRVal("local-value"), types.TypeScalar, nil, "")

	b := FrameBindings{Vars: table, CurrentBundle: "mybundle"}
	v, ok := b.ResolveVar(globalRef)
	require.True(t, ok)
	assert.Equal(t, "local-value", v.Scalar)
}

func TestFrameBindingsFallsBackWhenNoBundleLocalBinding(t *testing.T) {
	table := vars.NewTable()
	ref, err := vars.Parse("hosts")
	require.NoError(t, err)
	table.Put(ref, types.ScalarRVal("global-value"), types.TypeScalar, nil, "")

	b := FrameBindings{Vars: table, CurrentBundle: "mybundle"}
	v, ok := b.ResolveVar(ref)
	require.True(t, ok)
	assert.Equal(t, "global-value", v.Scalar)
}

func TestFrameBindingsHonorsExplicitScopeWhenSet(t *testing.T) {
	table := vars.NewTable()
	ref, err := vars.Parse("otherbundle.hosts")
	require.NoError(t, err)
	table.Put(ref, types.ScalarRVal("other-value"), types.TypeScalar, nil, "")

	b := FrameBindings{Vars: table, CurrentBundle: "mybundle"}
	v, ok := b.ResolveVar(ref)
	require.True(t, ok)
	assert.Equal(t, "other-value", v.Scalar)
}

func TestFrameBindingsReportsMissing(t *testing.T) {
	b := FrameBindings{Vars: vars.NewTable(), CurrentBundle: "mybundle"}
	ref, err := vars.Parse("nope")
	require.NoError(t, err)
	_, ok := b.ResolveVar(ref)
	assert.False(t, ok)
}
