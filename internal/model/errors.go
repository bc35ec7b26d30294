package model

import "errors"

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind classifies authentication failures for transport mapping.
type ErrorKind int

const (
	KindUnauthenticated ErrorKind = iota
	KindBadRequest
	KindNotFound
	KindRateLimited
	KindInternal
)

// AuthError is a typed failure surfaced to API callers. Validation code
// fails fast with the precise kind; orchestrators let these propagate
// unchanged and translate everything else into KindInternal.
type AuthError struct {
	Kind    ErrorKind
	Message string
	// RetryAfterSeconds carries a wait hint for KindRateLimited.
	RetryAfterSeconds int
}

func (e *AuthError) Error() string {
	return e.Message
}

func NewErrUnauthenticated(message string) *AuthError {
	return &AuthError{Kind: KindUnauthenticated, Message: message}
}

func NewErrBadRequest(message string) *AuthError {
	return &AuthError{Kind: KindBadRequest, Message: message}
}

func NewErrNotFound(message string) *AuthError {
	return &AuthError{Kind: KindNotFound, Message: message}
}

func NewErrRateLimited(message string, retryAfterSeconds int) *AuthError {
	return &AuthError{Kind: KindRateLimited, Message: message, RetryAfterSeconds: retryAfterSeconds}
}
