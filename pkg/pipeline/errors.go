package pipeline

import "errors"

// Failure taxonomy shared by the pipeline components. "Not found" states are
// not errors: they are represented as empty collections plus notes.
var (
	// ErrTransientIO marks a network or decode failure that is subject to
	// the loader's retry budget
	ErrTransientIO = errors.New("transient I/O failure")

	// ErrBandUnavailable is returned when a band could not be loaded after
	// all retry attempts
	ErrBandUnavailable = errors.New("band unavailable")

	// ErrCompositionFailed is returned when normalization or combination
	// failed internally
	ErrCompositionFailed = errors.New("composition failed")

	// ErrWorkflowNotFound is returned when a workflow is not registered
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidRequest is returned when the request is invalid
	ErrInvalidRequest = errors.New("invalid compose request")
)
