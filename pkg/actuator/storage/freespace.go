package storage

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// DiskUsager reports total/free bytes for the filesystem containing path.
type DiskUsager interface {
	Usage(path string) (totalBytes, freeBytes uint64, err error)
}

// GopsutilDiskUsage reports usage via github.com/shirou/gopsutil/v4/disk.
type GopsutilDiskUsage struct{}

func (GopsutilDiskUsage) Usage(path string) (uint64, uint64, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return stat.Total, stat.Free, nil
}

// checkFreeSpace compares the filesystem containing path against
// threshold: a negative threshold names a percentage (its absolute
// value), a non-negative one names an absolute byte count. threshold == 0
// means "no free-space check was promised".
func checkFreeSpace(usager DiskUsager, path string, threshold int64) (ok bool, detail string, err error) {
	if threshold == 0 {
		return true, "", nil
	}

	total, free, err := usager.Usage(path)
	if err != nil {
		return false, "", fmt.Errorf("storage: disk usage for %q: %w", path, err)
	}

	if threshold < 0 {
		wantPct := -threshold
		var freePct int64
		if total > 0 {
			freePct = int64(free) * 100 / int64(total)
		}
		if freePct < wantPct {
			return false, fmt.Sprintf("free disk space is under %d%% for volume containing %q, %d%% free", wantPct, path, freePct), nil
		}
		return true, "", nil
	}

	if int64(free) < threshold {
		return false, fmt.Sprintf("disk space under %d kB for volume containing %q (%d kB free)", threshold/1024, path, free/1024), nil
	}
	return true, "", nil
}
