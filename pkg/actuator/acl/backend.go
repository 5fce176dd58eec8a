package acl

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/cfengine/promise-engine/pkg/types"
)

// Backend is the platform-specific ACL collaborator spec.md §4.J calls
// for ("dispatch to the platform-specific ACL backend... as an external
// collaborator"). Apply receives already-validated entries.
type Backend interface {
	Apply(path string, method types.ACLMethod, entries []string) (types.PromiseResult, error)
}

// PosixACLBackend shells out to setfacl(1), the same way pkg/actuator/
// process's runStop and pkg/actuator/storage's Mounter shell out where
// the standard library has no portable wrapper - here because no example
// repo's dependency set offers a POSIX ACL library.
type PosixACLBackend struct{}

func (PosixACLBackend) Apply(path string, method types.ACLMethod, entries []string) (types.PromiseResult, error) {
	if len(entries) == 0 {
		return types.ResultNoop, nil
	}

	setfaclEntries := make([]string, 0, len(entries))
	for _, e := range entries {
		translated, err := translatePosixEntry(e)
		if err != nil {
			return types.ResultFail, err
		}
		setfaclEntries = append(setfaclEntries, translated)
	}

	args := []string{"-m", strings.Join(setfaclEntries, ",")}
	if method == types.ACLOverwrite {
		args = []string{"-b", "-m", strings.Join(setfaclEntries, ",")}
	}
	args = append(args, path)

	out, err := exec.Command("setfacl", args...).CombinedOutput()
	if err != nil {
		return types.ResultFail, fmt.Errorf("acl: setfacl %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return types.ResultChange, nil
}

// translatePosixEntry turns a validated "user:alice:=rwx:allow" style
// entry into setfacl's "u:alice:rwx" clause. setfacl has no deny-type
// ACEs, which is consistent with POSIX ACLs never supporting deny
// (flavorFor(ACLPosix).denySupport is false), so no perm_type survives
// translation; mask entries drop their leading "mask:" down to setfacl's
// own "m:" form.
func translatePosixEntry(entry string) (string, error) {
	withoutPermType, _, _ := strings.Cut(entry, ":allow")
	withoutPermType, _, _ = strings.Cut(withoutPermType, ":deny")

	var kind, rest string
	switch {
	case strings.HasPrefix(withoutPermType, "user:"):
		kind, rest = "u", withoutPermType[len("user:"):]
	case strings.HasPrefix(withoutPermType, "group:"):
		kind, rest = "g", withoutPermType[len("group:"):]
	case strings.HasPrefix(withoutPermType, "all:"):
		kind, rest = "o", withoutPermType[len("all:"):]
	case strings.HasPrefix(withoutPermType, "mask:"):
		kind, rest = "m", withoutPermType[len("mask:"):]
	default:
		return "", fmt.Errorf("acl: cannot translate entry %q for setfacl", entry)
	}

	mode := rest
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		mode = rest[idx+1:]
	}
	mode = strings.TrimLeft(mode, "=+-")

	id := ""
	if kind == "u" || kind == "g" {
		if idx := strings.IndexByte(rest, ':'); idx >= 0 {
			id = rest[:idx]
		}
	}

	return fmt.Sprintf("%s:%s:%s", kind, id, mode), nil
}

// NTFSACLBackend reports that NTFS ACLs aren't supported on this
// platform, mirroring verify_acl.c's non-Windows #else branch, which
// logs and leaves the result at noop rather than failing the promise.
type NTFSACLBackend struct{}

func (NTFSACLBackend) Apply(path string, method types.ACLMethod, entries []string) (types.PromiseResult, error) {
	return types.ResultNoop, nil
}
