package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadItemListSkipsBlankAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(path, []byte("a\n\n# comment\nb\n"), 0o644))

	list, err := LoadItemList(path, types.EditDefaults{CommentChar: '#'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemNames(list))
}

func TestLoadItemListKeepsBlankLinesWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(path, []byte("a\n\nb\n"), 0o644))

	list, err := LoadItemList(path, types.EditDefaults{EmptyLines: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, itemNames(list))
}

func TestCompareToFileEqualWhenContentMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	diff, err := CompareToFile([]string{"a", "b"}, path, types.EditDefaults{}, false)
	require.NoError(t, err)
	assert.True(t, diff.Equal)
}

func TestCompareToFileMissingFileIsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope")
	diff, err := CompareToFile([]string{"a"}, path, types.EditDefaults{}, false)
	require.NoError(t, err)
	assert.False(t, diff.Equal)
	assert.Equal(t, []string{"a"}, diff.Adds)
}

func TestCompareToFileStopsAtFirstMismatchWithoutWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(path, []byte("a\nX\nY\n"), 0o644))

	diff, err := CompareToFile([]string{"a", "b", "c"}, path, types.EditDefaults{}, false)
	require.NoError(t, err)
	assert.False(t, diff.Equal)
	assert.Equal(t, []string{"b"}, diff.Adds)
	assert.Equal(t, []string{"X"}, diff.Removes)
}

func TestCompareToFileWalksToEndWithWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(path, []byte("a\nX\nY\n"), 0o644))

	diff, err := CompareToFile([]string{"a", "b", "c"}, path, types.EditDefaults{}, true)
	require.NoError(t, err)
	assert.False(t, diff.Equal)
	assert.Equal(t, []string{"b", "c"}, diff.Adds)
	assert.Equal(t, []string{"X", "Y"}, diff.Removes)
}
