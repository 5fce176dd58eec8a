package acl

import (
	"fmt"
	"strings"

	"github.com/cfengine/promise-engine/pkg/types"
)

// flavor bundles the per-ACLType alphabet and capability set
// CheckACLSyntax/CheckACESyntax in original_source/cf-agent/verify_acl.c
// switch on. The letter alphabets themselves aren't in any retrieved
// original_source header, so they're a judgment call rather than a
// literal port: generic perms are the familiar
// "rwx"; POSIX keeps "rwx" and allows a bracketed native clause for the
// extra bits its mask entries can carry; NTFS widens perms to include
// delete and allows a bracketed clause of native Windows rights letters.
type flavor struct {
	perms       string
	nativePerms string // "" means no bracketed native clause is allowed
	denySupport bool
	maskSupport bool
}

func flavorFor(t types.ACLType) flavor {
	switch t {
	case types.ACLPosix:
		return flavor{perms: "rwx", nativePerms: "rwxc", denySupport: false, maskSupport: true}
	case types.ACLNTFS:
		return flavor{perms: "rwxd", nativePerms: "RWXDPOS", denySupport: true, maskSupport: false}
	default: // ACLGeneric
		return flavor{perms: "rwx", nativePerms: "", denySupport: false, maskSupport: false}
	}
}

// ValidateEntries checks every ACE against aclType's flavor, stopping at
// (and naming) the first invalid entry, matching CheckACLSyntax's
// break-on-first-error behavior.
func ValidateEntries(entries []string, aclType types.ACLType) error {
	f := flavorFor(aclType)
	for _, ace := range entries {
		if err := validateACE(ace, f); err != nil {
			return fmt.Errorf("acl: entry %q: %w", ace, err)
		}
	}
	return nil
}

// validateACE checks one entry of the form
// (user|group|all|mask):[id:]mode[:perm_type].
func validateACE(ace string, f flavor) error {
	rest := ace
	needsID := false

	switch {
	case strings.HasPrefix(rest, "user:"):
		rest = rest[len("user:"):]
		needsID = true
	case strings.HasPrefix(rest, "group:"):
		rest = rest[len("group:"):]
		needsID = true
	case strings.HasPrefix(rest, "all:"):
		rest = rest[len("all:"):]
	case strings.HasPrefix(rest, "mask:"):
		if !f.maskSupport {
			return fmt.Errorf("this ACL type does not support mask entries")
		}
		rest = rest[len("mask:"):]
	default:
		return fmt.Errorf("does not start with user:/group:/all:/mask:")
	}

	if needsID {
		idx := strings.IndexByte(rest, ':')
		if idx <= 0 {
			return fmt.Errorf("id cannot be empty or missing")
		}
		rest = rest[idx+1:]
	}

	modeStr, permType, hasPermType := strings.Cut(rest, ":")
	if err := validateMode(modeStr, f); err != nil {
		return err
	}
	if !hasPermType {
		return nil
	}
	return validatePermType(permType, f)
}

// validateMode checks a ','-separated list of (op)(perms)[<native>]
// tuples. An empty mode string is allowed, matching CheckModeSyntax.
func validateMode(mode string, f flavor) error {
	if mode == "" {
		return nil
	}
	for _, tuple := range strings.Split(mode, ",") {
		if err := validateModeTuple(tuple, f); err != nil {
			return err
		}
	}
	return nil
}

func validateModeTuple(tuple string, f flavor) error {
	if tuple == "" {
		return fmt.Errorf("empty mode tuple")
	}
	if tuple[0] != '=' && tuple[0] != '+' && tuple[0] != '-' {
		return fmt.Errorf("mode tuple %q must start with =, +, or -", tuple)
	}
	rest := tuple[1:]

	nativeStart := strings.IndexByte(rest, '<')
	perms := rest
	var native string
	if nativeStart >= 0 {
		perms = rest[:nativeStart]
		if !strings.HasSuffix(rest, ">") {
			return fmt.Errorf("native clause in %q missing closing >", tuple)
		}
		native = rest[nativeStart+1 : len(rest)-1]
	}

	for _, c := range perms {
		if !strings.ContainsRune(f.perms, c) {
			return fmt.Errorf("invalid permission letter %q in %q", c, tuple)
		}
	}
	if native != "" {
		if f.nativePerms == "" {
			return fmt.Errorf("this ACL type does not support native permissions, found in %q", tuple)
		}
		for _, c := range native {
			if !strings.ContainsRune(f.nativePerms, c) {
				return fmt.Errorf("invalid native permission letter %q in %q", c, tuple)
			}
		}
	}
	return nil
}

func validatePermType(permType string, f flavor) error {
	switch permType {
	case "allow":
		return nil
	case "deny":
		if !f.denySupport {
			return fmt.Errorf("deny permission not supported by this ACL type")
		}
		return nil
	default:
		return fmt.Errorf("perm_type must be allow or deny, got %q", permType)
	}
}
