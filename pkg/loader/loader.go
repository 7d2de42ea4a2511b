// pkg/loader/loader.go
package loader

import (
	"context"
	"fmt"
)

// Trigger starts the downstream load of the staged files
type Trigger interface {
	Name() string
	Trigger(ctx context.Context) (*Response, error)
}

// Response is what the downstream loader reported back
type Response struct {
	Target     string           // Function or database that performed the load
	StatusCode int              // Invocation status code, 200 for direct loads
	Payload    []byte           // Raw response payload, if any
	Rows       map[string]int64 // Rows loaded per table, for direct loads
}

// FunctionError is an execution error reported by the remote loader
type FunctionError struct {
	Function string
	Kind     string // "Handled" or "Unhandled"
	Payload  []byte
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("loader function %s failed (%s): %s", e.Function, e.Kind, e.Payload)
}

// Downstream marks the error as reported by the loader; it is never retried
func (e *FunctionError) Downstream() bool {
	return true
}

// RejectedError is an invocation the remote side refused outright
type RejectedError struct {
	Function string
	Err      error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("invocation of %s rejected: %v", e.Function, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Temporary reports that repeating the invocation cannot help
func (e *RejectedError) Temporary() bool {
	return false
}

// NoopTrigger skips the downstream load
type NoopTrigger struct{}

// Name implements Trigger
func (NoopTrigger) Name() string { return "none" }

// Trigger implements Trigger
func (NoopTrigger) Trigger(context.Context) (*Response, error) {
	return &Response{Target: "none"}, nil
}
