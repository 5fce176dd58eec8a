/*
Package metrics defines the Prometheus instrumentation for the promise
evaluation engine: per-promise-type evaluation counters and durations,
KV-store operation counters, last-seen update counters, and actuator
repair counters. All metrics are registered at package init, following
the same MustRegister-in-init convention used throughout this codebase.

The Timer helper starts a clock and later observes the elapsed duration
into a histogram (optionally with label values for a histogram vec); it
is the only exported behavior beyond the metric variables themselves.

cmd/cfpromise's `metrics` subcommand writes the registry's current state
in Prometheus text-exposition format to stdout — there is no long-running
daemon mode in this engine, so nothing here binds an HTTP listener.
*/
package metrics
