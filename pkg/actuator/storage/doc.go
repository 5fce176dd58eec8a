// Package storage implements the Storage Actuator: verifying a mount is
// present with the promised source/server/options (mounting or unmounting
// through an external mount(8) collaborator when it isn't), scanning a
// volume's top-level directory for suspiciously small file counts or
// aggregate size, and checking free disk space against an absolute or
// percentage threshold. The live mount table and disk-usage figures come
// from collaborators kept behind interfaces so the converge logic can run
// against a fixed fixture instead of the host's real filesystems.
package storage
