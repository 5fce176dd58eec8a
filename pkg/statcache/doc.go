// Package statcache caches remote stat() responses for the lifetime of
// one network connection, keyed by (server, path), per spec.md §3's
// "Stat cache entry" data model.
package statcache
