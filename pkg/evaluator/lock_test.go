package evaluator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockManager(t *testing.T) *LockManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locks.db")
	f, err := kvstore.OpenFactory(path, 20)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	db, err := f.Handle(kvstore.DbLocks)
	require.NoError(t, err)
	return NewLockManager(db)
}

func TestLockNameProcessUsesRestartClassSuffix(t *testing.T) {
	attrs := types.Attributes{Process: &types.ProcessAttrs{RestartClass: "restart_sshd"}}
	assert.Equal(t, "process_sshd-restart_sshd", LockName(types.PromiseProcess, "sshd", attrs))
}

func TestLockNameProcessDefaultsToNorestart(t *testing.T) {
	assert.Equal(t, "process_sshd-norestart", LockName(types.PromiseProcess, "sshd", types.Attributes{}))
}

func TestLockNameFileIsJustThePath(t *testing.T) {
	assert.Equal(t, "file_/etc/hosts", LockName(types.PromiseFile, "/etc/hosts", types.Attributes{}))
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	m := newTestLockManager(t)
	now := time.Now()

	acquired, err := m.Acquire("lock1", 0, 0, now)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = m.Acquire("lock1", 0, 0, now)
	require.NoError(t, err)
	assert.False(t, acquired, "lock already held")

	require.NoError(t, m.Release("lock1", now))

	acquired, err = m.Acquire("lock1", 0, 0, now)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAcquireRespectsIfElapsed(t *testing.T) {
	m := newTestLockManager(t)
	start := time.Now()

	require.NoError(t, func() error { _, err := m.Acquire("lock1", 0, 0, start); return err }())
	require.NoError(t, m.Release("lock1", start))

	acquired, err := m.Acquire("lock1", time.Hour, 0, start.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, acquired, "ran more recently than ifElapsed")

	acquired, err = m.Acquire("lock1", time.Hour, 0, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAcquireStealsExpiredLock(t *testing.T) {
	m := newTestLockManager(t)
	start := time.Now()

	acquired, err := m.Acquire("lock1", 0, time.Minute, start)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = m.Acquire("lock1", 0, time.Minute, start.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, acquired, "not yet expired")

	acquired, err = m.Acquire("lock1", 0, time.Minute, start.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, acquired, "expireafter elapsed, lock stolen")
}
