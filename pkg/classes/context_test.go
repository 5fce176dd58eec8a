package classes

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classes.db")
	f, err := kvstore.OpenFactory(path, 20)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	db, err := f.Handle(kvstore.DbClassesPersistent)
	require.NoError(t, err)
	return New(db)
}

func TestDefineIsDefinedUndefine(t *testing.T) {
	ctx := newTestContext(t)
	assert.False(t, ctx.IsDefined("linux"))

	ctx.Define("linux", types.ClassScopeNamespace, "", nil)
	assert.True(t, ctx.IsDefined("linux"))

	assert.True(t, ctx.Undefine("linux"))
	assert.False(t, ctx.IsDefined("linux"))
	assert.False(t, ctx.Undefine("linux"))
}

func TestEvaluateUsesLiveSet(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Define("linux", types.ClassScopeNamespace, "", nil)

	ok, err := ctx.Evaluate("linux&!windows")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPopBundleFrameRemovesOnlyThatBundlesClasses(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Define("local_to_a", types.ClassScopeBundle, "bundleA", nil)
	ctx.Define("local_to_b", types.ClassScopeBundle, "bundleB", nil)
	ctx.Define("global", types.ClassScopeNamespace, "", nil)

	ctx.PopBundleFrame("bundleA")

	assert.False(t, ctx.IsDefined("local_to_a"))
	assert.True(t, ctx.IsDefined("local_to_b"))
	assert.True(t, ctx.IsDefined("global"))
}

func TestHeapPersistentSaveDefinesImmediatelyAndPersists(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.HeapPersistentSave("bootstrapped", 60, types.ExpiryReset, nil))
	assert.True(t, ctx.IsDefined("bootstrapped"))

	fresh := New(ctx.persistentDB)
	assert.False(t, fresh.IsDefined("bootstrapped"))
	require.NoError(t, fresh.LoadPersistent(time.Now()))
	assert.True(t, fresh.IsDefined("bootstrapped"))
}

func TestLoadPersistentPurgesExpiredResetEntries(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.HeapPersistentSave("short_lived", 1, types.ExpiryReset, nil))

	future := time.Now().Add(time.Hour)
	fresh := New(ctx.persistentDB)
	require.NoError(t, fresh.LoadPersistent(future))
	assert.False(t, fresh.IsDefined("short_lived"))

	secondLoad := New(ctx.persistentDB)
	require.NoError(t, secondLoad.LoadPersistent(future))
	assert.False(t, secondLoad.IsDefined("short_lived"))
}

func TestHeapPersistentRemoveCancelsCachedClass(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.HeapPersistentSave("one_shot", 60, types.ExpiryReset, nil))
	require.NoError(t, ctx.HeapPersistentRemove("one_shot"))

	fresh := New(ctx.persistentDB)
	require.NoError(t, fresh.LoadPersistent(time.Now()))
	assert.False(t, fresh.IsDefined("one_shot"))
}
