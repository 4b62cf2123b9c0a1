package service

import "errors"

// ErrValidation matches every input validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError describes one rejected input. It matches ErrValidation.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func newValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

var (
	ErrNameRequired     = newValidationError("name is required")
	ErrEmailRequired    = newValidationError("email is required")
	ErrEmailInvalid     = newValidationError("email is invalid")
	ErrPasswordRequired = newValidationError("password is required")
	ErrIDTokenRequired  = newValidationError("idToken is required")
	ErrInvalidContent   = newValidationError("content must be an array of block nodes")
	ErrTitleTooLong     = newValidationError("title is too long")
)

var (
	ErrDuplicateAccount      = errors.New("email already in use")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidFederatedToken = errors.New("invalid federated identity token")
	ErrUnauthenticated       = errors.New("invalid or expired token")
	ErrNotFound              = errors.New("note not found")
)
