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

func TestSaveAsFileReplacesContentAndDropsBackupWhenBackupNo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	callback := func(scratch string) error {
		return os.WriteFile(scratch, []byte("new\n"), 0o644)
	}

	err := SaveAsFile(callback, path, types.FileAttrs{Backup: types.BackupNo}, time.Now(), "")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))

	matches, err := filepath.Glob(path + "*.cf-before-edit*")
	require.NoError(t, err)
	assert.Empty(t, matches, "backup.No should not leave a backup behind")
}

func TestSaveAsFileLeavesOriginalUntouchedWhenCallbackFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	callback := func(scratch string) error {
		return assert.AnError
	}

	err := SaveAsFile(callback, path, types.FileAttrs{Backup: types.BackupNo}, time.Now(), "")
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
}

func TestSaveAsFileResolvesSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(real, []byte("old\n"), 0o644))
	require.NoError(t, os.Symlink(real, link))

	callback := func(scratch string) error {
		return os.WriteFile(scratch, []byte("new\n"), 0o644)
	}

	require.NoError(t, SaveAsFile(callback, link, types.FileAttrs{Backup: types.BackupNo}, time.Now(), ""))

	got, err := os.ReadFile(real)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))
}

func TestSaveAsFileRotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(path, []byte("v1\n"), 0o644))

	callback := func(v string) func(string) error {
		return func(scratch string) error { return os.WriteFile(scratch, []byte(v), 0o644) }
	}

	attrs := types.FileAttrs{Backup: types.BackupRotate, RotateKeep: 2}
	require.NoError(t, SaveAsFile(callback("v2\n"), path, attrs, time.Now(), ""))
	require.NoError(t, SaveAsFile(callback("v3\n"), path, attrs, time.Now(), ""))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v3\n", string(got))

	backup1, err := os.ReadFile(path + ".cf-before-edit.1")
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(backup1))
}
