// Package file implements the File Actuator: the three non-trivial
// filesystem primitives a file promise converges through (move obstructing
// objects aside, atomically replace file content with a backup, and
// byte-copy while preserving sparseness) plus the item-list comparison
// used to decide whether an edit promise needs to run at all.
package file
