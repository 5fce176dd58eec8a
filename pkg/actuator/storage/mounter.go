package storage

import (
	"fmt"
	"os/exec"
	"strings"
)

// Mounter performs the actual mount(8)/umount(8) work. Go's standard
// library has no portable wrapper around mount(2), so, like the Process
// Actuator's process_stop command, this shells out to the system's own
// mount tooling rather than hand-rolling a syscall-level implementation
// per platform.
type Mounter interface {
	Mount(source, target, fstype string, options []string) error
	Unmount(target string) error
}

// OSMounter runs the real mount(8)/umount(8) binaries.
type OSMounter struct{}

func (OSMounter) Mount(source, target, fstype string, options []string) error {
	args := []string{}
	if fstype != "" {
		args = append(args, "-t", fstype)
	}
	if len(options) > 0 {
		args = append(args, "-o", strings.Join(options, ","))
	}
	args = append(args, source, target)

	out, err := exec.Command("mount", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("storage: mount %s on %s: %w: %s", source, target, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (OSMounter) Unmount(target string) error {
	out, err := exec.Command("umount", target).CombinedOutput()
	if err != nil {
		return fmt.Errorf("storage: unmount %s: %w: %s", target, err, strings.TrimSpace(string(out)))
	}
	return nil
}
