package telegram

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidParams matches any *ValidationError via errors.Is.
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrNoPendingCode is returned by AuthSignIn without a prior AuthSendCode.
	ErrNoPendingCode = errors.New("no pending sign-in code, call auth.sendCode first")
)

// ValidationError rejects a request before it is sent.
type ValidationError struct {
	Method string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Method, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParams
}

func invalid(method, field, reason string) error {
	return &ValidationError{Method: method, Field: field, Reason: reason}
}
