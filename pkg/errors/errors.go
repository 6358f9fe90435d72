package errors

import "fmt"

// ErrNotFound indicates a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrTimeout indicates the client-side deadline elapsed before a response arrived
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("request timeout: %s", e.Operation)
}

// ErrNetwork indicates a connection-level failure (DNS, refused, reset)
type ErrNetwork struct {
	Operation string
	Err       error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrHTTP indicates a non-2xx response. Message carries the server's
// {message} body when one was parseable, otherwise "HTTP <status>: <text>".
type ErrHTTP struct {
	Status  int
	Message string
}

func (e *ErrHTTP) Error() string {
	return e.Message
}

// ErrValidation indicates malformed input caught at an edit boundary
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
