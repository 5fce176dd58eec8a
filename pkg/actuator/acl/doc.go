// Package acl implements the ACL Actuator: validating an access control
// entry list against a per-flavor syntax (generic, POSIX, NTFS), applying
// acl_method/acl_type/acl_default defaults, and dispatching the validated
// entries to a platform ACL backend kept behind an interface so the
// validation and default-filling logic can be tested without touching a
// real filesystem ACL.
package acl
