package acl

import (
	"fmt"
	"os"

	"github.com/cfengine/promise-engine/pkg/types"
)

// validateDefaultACL mirrors CheckAclDefault in
// original_source/cf-agent/verify_acl.c: acl_default may only be set to
// Specify or Clear on a directory. types.ACLDefault's zero value is
// NoChange, which is already the documented default, so - unlike
// SetACLDefaults's acl_method/acl_type fallbacks - there's no separate
// "fill in the default" step needed here beyond this validation.
func validateDefaultACL(path string, defaultACL types.ACLDefault, isDir func(string) bool) error {
	if defaultACL == types.ACLDefaultNoChange {
		return nil
	}
	if isDir == nil {
		isDir = defaultIsDir
	}
	if !isDir(path) {
		return fmt.Errorf("acl: acl_default can only be set on directories")
	}
	return nil
}

func defaultIsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
