// Package cmdb implements the one-shot CMDB Loader (component K): a
// single JSON document ingested at run start to seed the Variable Table
// and Class Context with host-specific facts, per spec.md §4.K.
package cmdb
