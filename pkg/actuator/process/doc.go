// Package process implements the Process Actuator: matching the live
// process table against a promiser regex and per-field sub-predicates,
// counting matches against a desired range, stopping matched processes via
// a shell command, signaling them in sequence, and defining a restart
// class when a kill signal lands or nothing matched at all. The process
// table itself comes from a Table collaborator backed by gopsutil,
// kept behind an interface so match/signal/restart logic can be tested
// against a fixed table instead of the live host.
package process
