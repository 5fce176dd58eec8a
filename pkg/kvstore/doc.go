// Package kvstore is the KV-Store component: a process-wide handle factory
// returning DB handles keyed by a small DbId enum, backed by one bbolt
// bucket per id (the teacher's bucket-per-domain convention, here applied
// to CFEngine's database-per-concern layout instead of entity-per-domain).
//
// A DB handle carries Read/Write/Delete/HasKey/ValueSize and a cursor for
// ordered iteration with queued deletes, plus the three-part diagnose/
// repair/batch-repair pipeline for recovering from on-disk corruption —
// including the legacy hash-file format still encountered on older hosts,
// parsed read-only by the sibling legacyhash package.
package kvstore
