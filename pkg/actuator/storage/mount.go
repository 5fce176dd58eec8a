package storage

import (
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// MountEntry is one row of the live mount table.
type MountEntry struct {
	MountOn string
	Source  string
	Host    string // non-empty for a network filesystem, parsed from "host:path"
	Fstype  string
	Options string
}

// MountTable loads the current system mount table. GopsutilMountTable is
// the real implementation; tests substitute a fixed slice.
type MountTable interface {
	Load() ([]MountEntry, error)
}

// GopsutilMountTable loads mounts via github.com/shirou/gopsutil/v4/disk.
type GopsutilMountTable struct{}

func (GopsutilMountTable) Load() ([]MountEntry, error) {
	parts, err := disk.Partitions(true)
	if err != nil {
		return nil, err
	}
	entries := make([]MountEntry, 0, len(parts))
	for _, p := range parts {
		host, source := splitHostSource(p.Device)
		entries = append(entries, MountEntry{
			MountOn: p.Mountpoint,
			Source:  source,
			Host:    host,
			Fstype:  p.Fstype,
			Options: strings.Join(p.Opts, ","),
		})
	}
	return entries, nil
}

// splitHostSource parses a device string of the form "host:/export/path",
// the form an NFS mount's source takes in a mount table, from a plain
// local block device path.
func splitHostSource(device string) (host, source string) {
	if strings.HasPrefix(device, "/") {
		return "", device
	}
	if idx := strings.Index(device, ":"); idx >= 0 {
		return device[:idx], device[idx+1:]
	}
	return "", device
}

// findMount returns the entry whose MountOn exactly matches dir, giving
// primacy to the object the promise actually names over any nested mount.
func findMount(table []MountEntry, dir string) (MountEntry, bool) {
	for _, e := range table {
		if e.MountOn == dir {
			return e, true
		}
	}
	return MountEntry{}, false
}

// mountedCorrectly reports whether dir is mounted at all, and if so,
// whether its source matches wantSource (an empty wantSource always
// matches, since no source was promised to check against).
func mountedCorrectly(table []MountEntry, dir, wantSource string) (found, correct bool) {
	entry, found := findMount(table, dir)
	if !found {
		return false, false
	}
	if wantSource == "" || entry.Source == wantSource {
		return true, true
	}
	return true, false
}

// isForeignMount reports whether dir appears in the mount table with
// options naming "nfs" - the check_foreign skip condition.
func isForeignMount(table []MountEntry, dir string) bool {
	entry, found := findMount(table, dir)
	if !found {
		return false
	}
	return strings.Contains(entry.Options, "nfs")
}
