// Package queue implements the bounded, blocking thread-safe queue spec.md
// §5 calls for at the boundary between the single-threaded promise
// evaluator and any background worker pool.
package queue
