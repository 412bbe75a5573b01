// Package executor runs the checks configured for a mode.
//
// A run is planned first: enabled_if conditions are evaluated once, checks
// whose condition does not hold are recorded as skipped, and the remaining
// checks are arranged into stages. Parallel groups become stages, in order;
// every other check becomes a stage of its own. Stages run one after
// another and the checks inside a stage run concurrently.
//
// Each check is a `sh -c` subprocess in its own process group. When its
// timeout fires, the run timeout fires, or the caller cancels, the group
// receives SIGTERM and, after a grace period, SIGKILL.
//
// With fail-fast, a stage containing a failure stops the run and later
// stages are reported as skipped. Otherwise every stage runs and the
// report aggregates all failures. Results always follow the declared order.
package executor
