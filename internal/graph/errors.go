package graph

import "errors"

var (
	// ErrClearBusy is returned by Clear when other operations are in flight.
	// Clear has to run alone; retry once the callers have drained.
	ErrClearBusy = errors.New("graph: clear while operations are in flight")

	// ErrClearInProgress is returned by Clear when another Clear is running.
	ErrClearInProgress = errors.New("graph: clear already in progress")
)
