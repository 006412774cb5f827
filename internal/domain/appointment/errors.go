package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorUnavailable = errors.New("doctor is not accepting appointments")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOTPMismatch       = errors.New("OTP does not match")
	ErrPartiesImmutable  = errors.New("appointment parties cannot change")
)

// TransitionError names the rejected action and the state it was tried from.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an appointment that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

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
