package agentctx

import (
	"sync"
	"time"
)

// MountEntry is one row of the in-memory mount table the Storage
// Actuator consults and edits, per spec.md §4.I's mount handling.
type MountEntry struct {
	Source  string
	Server  string
	Target  string
	Options []string
}

// Config seeds a RunContext at startup.
type Config struct {
	WorkDir      string
	PolicyServer string // host[:port], as read from policy_server.dat
	IsPolicyHub  bool
}

// RunContext is the evaluator's single piece of threaded run state:
// everything that would otherwise live in package-level globals.
// Constructed once per run and passed by reference into the evaluator,
// the actuators, and the CLI commands that need it.
type RunContext struct {
	WorkDir      string
	PolicyServer string
	IsPolicyHub  bool
	StartTime    time.Time

	mu            sync.Mutex
	mounts        []MountEntry
	needsMountAll bool
}

// New builds a RunContext from cfg, stamping StartTime at construction.
func New(cfg *Config) *RunContext {
	return &RunContext{
		WorkDir:      cfg.WorkDir,
		PolicyServer: cfg.PolicyServer,
		IsPolicyHub:  cfg.IsPolicyHub,
		StartTime:    time.Now(),
	}
}

// LoadMountTable replaces the in-memory mount table, as parsed from the
// host's mount-info at the start of a run.
func (rc *RunContext) LoadMountTable(entries []MountEntry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.mounts = entries
}

// Mounts returns a copy of the current mount table.
func (rc *RunContext) Mounts() []MountEntry {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]MountEntry, len(rc.mounts))
	copy(out, rc.mounts)
	return out
}

// FindMount returns the mount entry for target, if any.
func (rc *RunContext) FindMount(target string) (MountEntry, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, m := range rc.mounts {
		if m.Target == target {
			return m, true
		}
	}
	return MountEntry{}, false
}

// AddMount records a new entry in the in-memory mount table (used when
// the Storage Actuator decides to edit the table rather than mount
// immediately).
func (rc *RunContext) AddMount(entry MountEntry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.mounts = append(rc.mounts, entry)
}

// RemoveMount drops the entry for target from the in-memory table.
func (rc *RunContext) RemoveMount(target string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for i, m := range rc.mounts {
		if m.Target == target {
			rc.mounts = append(rc.mounts[:i], rc.mounts[i+1:]...)
			return
		}
	}
}

// RequestMountAll marks the run as needing a final `mount -a` pass,
// set when the Storage Actuator edits the filesystem table instead of
// mounting explicitly.
func (rc *RunContext) RequestMountAll() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.needsMountAll = true
}

// NeedsMountAll reports whether any promise this run requested a
// deferred `mount -a`.
func (rc *RunContext) NeedsMountAll() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.needsMountAll
}

// Elapsed returns how long this run has been going.
func (rc *RunContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}
