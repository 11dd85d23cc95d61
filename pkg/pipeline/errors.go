package pipeline

import (
	"errors"
	"fmt"
)

// AuthenticationError is fatal: the backend rejected the handshake, so no
// session exists and the remaining composed operations cannot proceed.
// The runner aborts the sequence when it sees one.
type AuthenticationError struct {
	Endpoint string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication with %s failed: %v", e.Endpoint, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransportError is hard but scoped: the backend call itself failed. The
// operation that produced it yields no state transition; sibling operations
// that do not depend on its output may still run.
type TransportError struct {
	Collection string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend call on %q failed: %v", e.Collection, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the remaining operation sequence.
func IsFatal(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
