package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// VolumeSummary is the result of a one-level directory walk: how many
// entries it holds and their aggregate on-disk size.
type VolumeSummary struct {
	FileCount int
	SizeBytes int64
}

// scanVolume walks dir one level deep (not recursively), summing entry
// count and byte size. Entries that can't be lstat'd are skipped rather
// than failing the whole scan - a single vanished or permission-denied
// child shouldn't hide the rest of a large directory's sizing.
func scanVolume(dir string) (VolumeSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return VolumeSummary{}, fmt.Errorf("storage: read directory %q: %w", dir, err)
	}

	var summary VolumeSummary
	for _, entry := range entries {
		info, err := os.Lstat(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		summary.FileCount++
		summary.SizeBytes += info.Size()
	}
	return summary, nil
}

// sensible reports whether summary clears both configured thresholds. A
// zero threshold means that dimension wasn't constrained.
func sensible(summary VolumeSummary, minFileCount int, minBytes int64) (ok bool, reason string) {
	if minBytes > 0 && summary.SizeBytes < minBytes {
		return false, fmt.Sprintf("filesystem is suspiciously small (%d bytes)", summary.SizeBytes)
	}
	if minFileCount > 0 && summary.FileCount < minFileCount {
		return false, fmt.Sprintf("filesystem has only %d files/directories", summary.FileCount)
	}
	return true, ""
}

// deviceID returns the filesystem device id info.Sys() carries, used to
// detect a directory crossing onto a different filesystem than its
// parent.
func deviceID(info os.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

// crossesFilesystem reports whether dir's device id differs from its
// parent's - the precondition for treating it as a candidate foreign
// (e.g. NFS) mount.
func crossesFilesystem(dir string) (bool, error) {
	childInfo, err := os.Stat(dir)
	if err != nil {
		return false, fmt.Errorf("storage: stat %q: %w", dir, err)
	}
	parentInfo, err := os.Stat(filepath.Join(dir, ".."))
	if err != nil {
		return false, fmt.Errorf("storage: stat %q: %w", filepath.Join(dir, ".."), err)
	}

	childDev, ok1 := deviceID(childInfo)
	parentDev, ok2 := deviceID(parentInfo)
	if !ok1 || !ok2 {
		return false, nil
	}
	return childDev != parentDev, nil
}
