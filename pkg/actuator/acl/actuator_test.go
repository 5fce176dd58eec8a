package acl

import (
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	result types.PromiseResult
	err    error
	calls  []string
}

func (f *fakeBackend) Apply(path string, method types.ACLMethod, entries []string) (types.PromiseResult, error) {
	f.calls = append(f.calls, path)
	return f.result, f.err
}

func TestEvaluateInterruptedOnSyntaxError(t *testing.T) {
	posix := &fakeBackend{result: types.ResultChange}
	a := &Actuator{Posix: posix, NTFS: posix}
	p := types.Promise{
		Type:  types.PromiseACL,
		Attrs: types.Attributes{ACL: &types.ACLAttrs{ACEs: []string{"bogus"}}},
	}

	result, err := a.Evaluate(p, "/etc/data")
	assert.Error(t, err)
	assert.Equal(t, types.ResultInterrupted, result)
	assert.Empty(t, posix.calls)
}

func TestEvaluateDispatchesToPosixBackendByDefault(t *testing.T) {
	posix := &fakeBackend{result: types.ResultChange}
	ntfs := &fakeBackend{result: types.ResultChange}
	a := &Actuator{Posix: posix, NTFS: ntfs}
	p := types.Promise{
		Type:  types.PromiseACL,
		Attrs: types.Attributes{ACL: &types.ACLAttrs{ACEs: []string{"user:alice:=rwx"}}},
	}

	result, err := a.Evaluate(p, "/etc/data")
	require.NoError(t, err)
	assert.Equal(t, types.ResultChange, result)
	assert.Equal(t, []string{"/etc/data"}, posix.calls)
	assert.Empty(t, ntfs.calls)
}

func TestEvaluateDispatchesToNTFSBackendWhenRequested(t *testing.T) {
	posix := &fakeBackend{result: types.ResultChange}
	ntfs := &fakeBackend{result: types.ResultNoop}
	a := &Actuator{Posix: posix, NTFS: ntfs}
	p := types.Promise{
		Type: types.PromiseACL,
		Attrs: types.Attributes{ACL: &types.ACLAttrs{
			ACEs: []string{"user:alice:=rwxd:deny"},
			Type: types.ACLNTFS,
		}},
	}

	result, err := a.Evaluate(p, "C:/data")
	require.NoError(t, err)
	assert.Equal(t, types.ResultNoop, result)
	assert.Equal(t, []string{"C:/data"}, ntfs.calls)
	assert.Empty(t, posix.calls)
}

func TestEvaluateInterruptedWhenDefaultACLNotOnDirectory(t *testing.T) {
	posix := &fakeBackend{result: types.ResultChange}
	a := &Actuator{Posix: posix, NTFS: posix, IsDir: func(string) bool { return false }}
	p := types.Promise{
		Type: types.PromiseACL,
		Attrs: types.Attributes{ACL: &types.ACLAttrs{
			ACEs:       []string{"user:alice:=rwx"},
			DefaultACL: types.ACLDefaultSpecify,
		}},
	}

	result, err := a.Evaluate(p, "/etc/notadir")
	assert.Error(t, err)
	assert.Equal(t, types.ResultInterrupted, result)
	assert.Empty(t, posix.calls)
}

func TestEvaluatePropagatesBackendFailure(t *testing.T) {
	posix := &fakeBackend{err: assertError{}}
	a := &Actuator{Posix: posix, NTFS: posix}
	p := types.Promise{
		Type:  types.PromiseACL,
		Attrs: types.Attributes{ACL: &types.ACLAttrs{ACEs: []string{"user:alice:=rwx"}}},
	}

	result, err := a.Evaluate(p, "/etc/data")
	assert.Error(t, err)
	assert.Equal(t, types.ResultFail, result)
}

type assertError struct{}

func (assertError) Error() string { return "backend failed" }
