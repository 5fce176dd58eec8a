/*
Package evaluator implements the Promise Evaluator: for each promise in a
bundle, it consults the Class Context for the class guard, asks the
Iteration Engine for every concrete expansion, and dispatches each one to
the actuator registered for the promise's type under an advisory per-
expansion lock honoring ifelapsed/expireafter semantics. Per-expansion
results merge into one outcome per promise using the fixed severity
ordering from pkg/types.MergeResult.
*/
package evaluator
