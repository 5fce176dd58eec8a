package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveObstructionNoopWhenNothingThere(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: true}, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, types.ResultNoop, result)
}

func TestMoveObstructionFailsWhenDisallowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obstruction")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: false}, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, types.ResultFail, result)
	assert.FileExists(t, path)
}

func TestMoveObstructionRenamesNonDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obstruction")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: true}, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, types.ResultChange, result)
	assert.NoFileExists(t, path)

	matches, err := filepath.Glob(path + "*.cf-saved")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMoveObstructionRenamesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obstruction")
	require.NoError(t, os.Mkdir(path, 0o755))

	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: true}, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, types.ResultChange, result)
	assert.NoDirExists(t, path)

	matches, err := filepath.Glob(path + "*.cf-saved.dir")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMoveObstructionFailsWhenDirectoryTargetExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obstruction")
	require.NoError(t, os.Mkdir(path, 0o755))

	start := time.Unix(1700000000, 0)
	stamp := timestampSuffix(start)
	require.NoError(t, os.Mkdir(path+stamp+".cf-saved.dir", 0o755))

	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: true}, start, "")
	require.NoError(t, err)
	assert.Equal(t, types.ResultFail, result)
	assert.DirExists(t, path)
}

func TestMoveObstructionArchivesToRepository(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	path := filepath.Join(dir, "obstruction")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	result, err := MoveObstruction(path, types.FileAttrs{MoveObstructions: true}, time.Now(), repo)
	require.NoError(t, err)
	assert.Equal(t, types.ResultChange, result)

	entries, err := os.ReadDir(repo)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	matches, err := filepath.Glob(path + "*.cf-saved")
	require.NoError(t, err)
	assert.Empty(t, matches, "archived original should be unlinked")
}
