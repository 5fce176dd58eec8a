package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestFactory(t *testing.T) *Factory {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	f, err := OpenFactory(path, 20)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteReadDelete(t *testing.T) {
	f := openTestFactory(t)
	db, err := f.Handle(DbLastSeen)
	require.NoError(t, err)

	require.NoError(t, db.Write([]byte("k1"), []byte("v1")))

	v, ok := db.Read([]byte("k1"))
	require.True(t, ok)
	require.Equal(t, "v1", string(v))

	require.True(t, db.HasKey([]byte("k1")))
	require.Equal(t, 2, db.ValueSize([]byte("k1")))
	require.Equal(t, -1, db.ValueSize([]byte("missing")))

	require.NoError(t, db.Delete([]byte("k1")))
	require.False(t, db.HasKey([]byte("k1")))

	// Delete of a missing key is not an error.
	require.NoError(t, db.Delete([]byte("k1")))
}

func TestHandlesAreIndependentBuckets(t *testing.T) {
	f := openTestFactory(t)
	lastSeen, err := f.Handle(DbLastSeen)
	require.NoError(t, err)
	locks, err := f.Handle(DbLocks)
	require.NoError(t, err)

	require.NoError(t, lastSeen.Write([]byte("k"), []byte("lastseen-value")))
	require.False(t, locks.HasKey([]byte("k")))
}

func TestCursorIteratesAndQueuesDelete(t *testing.T) {
	f := openTestFactory(t)
	db, err := f.Handle(DbChecksumHashes)
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, db.Write([]byte(k), []byte(k+"-value")))
	}

	cur, err := db.NewCursor()
	require.NoError(t, err)

	var seen []string
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		seen = append(seen, string(k))
		if string(k) == "b" {
			require.NoError(t, cur.DeleteCurrent())
		}
	}
	require.NoError(t, cur.Close())
	require.Equal(t, []string{"a", "b", "c"}, seen)

	require.False(t, db.HasKey([]byte("b")))
	require.True(t, db.HasKey([]byte("a")))
	require.True(t, db.HasKey([]byte("c")))
}

func TestCursorWriteCurrent(t *testing.T) {
	f := openTestFactory(t)
	db, err := f.Handle(DbClassicStat)
	require.NoError(t, err)
	require.NoError(t, db.Write([]byte("k"), []byte("old")))

	cur, err := db.NewCursor()
	require.NoError(t, err)
	k, _, ok := cur.Next()
	require.True(t, ok)
	require.Equal(t, "k", string(k))
	require.NoError(t, cur.WriteCurrent([]byte("new")))
	require.NoError(t, cur.Close())

	v, ok := db.Read([]byte("k"))
	require.True(t, ok)
	require.Equal(t, "new", string(v))
}
