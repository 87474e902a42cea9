package pipeline

import "fmt"

// ReadError means an input file could not be opened or decoded.
type ReadError struct {
	File  string
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("[Pipeline] read %s: %v", e.File, e.Cause)
}

func (e *ReadError) Unwrap() error { return e.Cause }

// SinkWriteError means the sink rejected some or all of a file's posts.
// Inserted is how many were stored before or despite the failure.
type SinkWriteError struct {
	File     string
	Inserted int
	Cause    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("[Pipeline] write %s (%d inserted): %v", e.File, e.Inserted, e.Cause)
}

func (e *SinkWriteError) Unwrap() error { return e.Cause }

// ClearError means the pre-run clear failed; nothing was written.
type ClearError struct {
	Cause error
}

func (e *ClearError) Error() string { return fmt.Sprintf("[Pipeline] clear sink: %v", e.Cause) }

func (e *ClearError) Unwrap() error { return e.Cause }
