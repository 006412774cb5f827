package identity

import (
	"errors"
	"fmt"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotFound           = errors.New("not found")
)

// ValidationError marks rejected input. Its message is shown to the client.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
