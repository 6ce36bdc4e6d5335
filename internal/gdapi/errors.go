package gdapi

import "fmt"

// Error is returned when a Goodday API call fails.
// Extractable via errors.As(). Supports Unwrap().
type Error struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("goodday: %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("goodday: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
