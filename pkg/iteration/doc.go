/*
Package iteration implements the Iteration Engine: expanding a promiser (or
any attribute value) string containing $(...)/${...} variable references
into the sequence of concrete strings produced by enumerating every list-
valued reference it contains.

The engine models each list-valued reference as a "wheel" — an iteration
axis with a current position — and steps through every combination with an
odometer: the last-collected wheel advances fastest, carrying into earlier
wheels on overflow. A wheel whose unexpanded text references an
already-advanced outer wheel is re-evaluated on every step, since its
concrete variable name (and therefore its values) can change with the
outer binding.

Prepare takes a single Bindings implementation, deliberately limited to
variable resolution, so this package only needs one resolution seam. The
Promise Evaluator passes its FrameBindings, which consults the Variable
Table only; class guards are evaluated by the evaluator itself, not here.
*/
package iteration
