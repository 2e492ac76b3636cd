package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrCall marks a failed oracle request: transport error, timeout, empty reply.
	ErrCall = errors.New("oracle call failed")
	// ErrSchema marks a reply that could not be decoded or did not validate.
	ErrSchema = errors.New("oracle reply does not match schema")
)

// OracleError is the failure side of an oracle result. Kind is ErrCall or
// ErrSchema so callers can branch with errors.Is.
type OracleError struct {
	Kind error
	Err  error
}

func (e *OracleError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OracleError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// CallError wraps err as an ErrCall failure.
func CallError(err error) error {
	return &OracleError{Kind: ErrCall, Err: err}
}

// SchemaError wraps err as an ErrSchema failure.
func SchemaError(err error) error {
	return &OracleError{Kind: ErrSchema, Err: err}
}
