package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQueryValidation signals a request the engine should never see:
	// unknown parameters, an unparseable sort expression, or forbidden
	// query syntax. Not retryable.
	ErrQueryValidation = errors.New("invalid search query")
	// ErrBackendUnavailable signals a transport or protocol failure
	// talking to the engine. Safe for the caller to retry.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrNotAuthorized signals the caller lacks permission for a
	// privileged operation.
	ErrNotAuthorized = errors.New("not authorized")
)

// InvalidParamsError wraps ErrQueryValidation with the parameter names
// that are not on the engine whitelist.
type InvalidParamsError struct {
	Params []string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid search parameters: %s", strings.Join(e.Params, ", "))
}

func (e *InvalidParamsError) Unwrap() error { return ErrQueryValidation }

// NewInvalidParams creates a query validation error naming the rejected
// parameters.
func NewInvalidParams(params []string) error {
	return &InvalidParamsError{Params: params}
}
