// Package hooks dispatches run lifecycle events to registered handlers.
//
// The executor emits run_start, stage_start, check_start, check_finish and
// run_end. Dispatch is serialized, so handlers never run concurrently even
// when the checks of a stage finish at the same time.
package hooks
