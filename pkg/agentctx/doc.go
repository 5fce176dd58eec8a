// Package agentctx consolidates the promise evaluator's process-wide
// mutable state — policy-server address, run start time, the mounted
// filesystem table, and the "needs mount -a" flag — into a single
// RunContext threaded by pointer through constructors, instead of
// package-level globals.
package agentctx
