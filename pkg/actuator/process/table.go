package process

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Entry is one process-table row, the fields §4.H's matching and
// process_select sub-predicates read from.
type Entry struct {
	PID, PPID, PGID int
	UID             int
	Owner           string
	State           string
	StartTime       time.Time
	CPUSeconds      float64
	VSizeKB, RSSKB  int64
	Priority        int
	Threads         int
	TTY             string
	Cmd             string
	CmdLine         string
}

// Table is the external process-table collaborator spec.md's §4.H.1
// describes: something that can be asked for a fresh snapshot of every
// process currently running on the host.
type Table interface {
	Snapshot() ([]Entry, error)
}

// GopsutilTable is a Table backed by github.com/shirou/gopsutil/v4/process.
// Per-process field lookups that fail (a process having exited mid-scan,
// or a platform not exposing a given field) are left at their zero value
// rather than dropping the whole entry, since a partially-populated row is
// still useful to PID-only predicates.
type GopsutilTable struct{}

func (GopsutilTable) Snapshot() ([]Entry, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		e := Entry{PID: int(p.Pid)}

		if ppid, err := p.Ppid(); err == nil {
			e.PPID = int(ppid)
		}
		if uids, err := p.Uids(); err == nil && len(uids) > 0 {
			e.UID = int(uids[0])
		}
		if name, err := p.Username(); err == nil {
			e.Owner = name
		}
		if statuses, err := p.Status(); err == nil && len(statuses) > 0 {
			e.State = statuses[0]
		}
		if ct, err := p.CreateTime(); err == nil {
			e.StartTime = time.UnixMilli(ct)
		}
		if times, err := p.Times(); err == nil && times != nil {
			e.CPUSeconds = times.User + times.System
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			e.VSizeKB = int64(mem.VMS / 1024)
			e.RSSKB = int64(mem.RSS / 1024)
		}
		if nice, err := p.Nice(); err == nil {
			e.Priority = int(nice)
		}
		if nt, err := p.NumThreads(); err == nil {
			e.Threads = int(nt)
		}
		if term, err := p.Terminal(); err == nil {
			e.TTY = term
		}
		if name, err := p.Name(); err == nil {
			e.Cmd = name
		}
		if cmdline, err := p.Cmdline(); err == nil {
			e.CmdLine = cmdline
		}
		// gopsutil's process package does not expose a process group id
		// portably across platforms; PGID is left unset rather than
		// guessed at.

		entries = append(entries, e)
	}
	return entries, nil
}
