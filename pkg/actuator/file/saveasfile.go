package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cfengine/promise-engine/pkg/types"
)

// SaveCallback writes the promised new content into scratchPath.
type SaveCallback func(scratchPath string) error

// SaveAsFile is the atomic edit primitive: it resolves path through any
// symlink chain, lets callback write the new content into a scratch file
// alongside the resolved target, backs up the current content (hardlink,
// falling back to a byte copy when links aren't available), disposes of
// the backup per attrs.Backup, and only then renames the scratch file into
// place. Any failure before that final rename leaves the resolved path's
// content untouched.
func SaveAsFile(callback SaveCallback, path string, attrs types.FileAttrs, startTime time.Time, repoDir string) error {
	resolved, err := resolveSymlink(path)
	if err != nil {
		return err
	}

	stamp := ""
	if attrs.Backup == types.BackupTimestamp {
		stamp = timestampSuffix(startTime)
	}

	backup := resolved + stamp + ".cf-before-edit"
	scratch := resolved + ".cf-after-edit"
	_ = os.Remove(scratch) // clear any stale scratch from an interrupted prior run

	if err := callback(scratch); err != nil {
		return fmt.Errorf("file: edit callback for %s: %w", path, err)
	}

	if err := copyPermissions(resolved, scratch); err != nil {
		return fmt.Errorf("file: copy permissions onto scratch for %s: %w", path, err)
	}

	_ = os.Remove(backup)
	if err := os.Link(resolved, backup); err != nil {
		if err := CopyRegularFileDisk(resolved, backup); err != nil {
			return fmt.Errorf("file: back up %s: %w", path, err)
		}
		if err := copyPermissions(resolved, backup); err != nil {
			return fmt.Errorf("file: copy permissions onto backup for %s: %w", path, err)
		}
	}

	switch attrs.Backup {
	case types.BackupRotate:
		_ = rotateFiles(backup, attrs.RotateKeep)
		_ = os.Remove(backup)
	case types.BackupNo:
		_ = os.Remove(backup)
	default:
		if archiveToRepository(backup, repoDir) {
			_ = os.Remove(backup)
		}
	}

	if err := os.Rename(scratch, resolved); err != nil {
		return fmt.Errorf("file: rename %s into place over %s: %w", scratch, path, err)
	}
	return nil
}

// resolveSymlink follows a symlink chain to its non-link target, joining a
// relative link target against its own containing directory.
func resolveSymlink(path string) (string, error) {
	resolved := path
	for i := 0; i < 32; i++ {
		info, err := os.Lstat(resolved)
		if err != nil {
			return "", fmt.Errorf("file: lstat %s: %w", resolved, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return resolved, nil
		}
		target, err := os.Readlink(resolved)
		if err != nil {
			return "", fmt.Errorf("file: readlink %s: %w", resolved, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(resolved), target)
		}
		resolved = target
	}
	return "", fmt.Errorf("file: symlink chain too deep resolving %s", path)
}

func copyPermissions(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}

func writeLines(path string, lines []string, sep string) error {
	if sep == "" {
		sep = "\n"
	}
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString(sep)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
