package graph

import "errors"

var (
	// ErrNodeNotFound is returned when an operation names a node id that is
	// not in the graph.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrEdgeNotFound is returned when an edge id is not in the graph.
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrInvalidChange is returned when a change batch or action payload
	// fails validation. Nothing from the batch is applied.
	ErrInvalidChange = errors.New("graph: invalid change")

	// ErrUnknownAction is returned by the dispatcher for an action kind it
	// has no handler for.
	ErrUnknownAction = errors.New("graph: unknown action")
)
