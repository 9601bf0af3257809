package services

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("email already registered")
	ErrNotFound              = errors.New("not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailDeliveryFailed   = errors.New("failed to send verification email")
	ErrUnauthenticated       = errors.New("not authenticated")
)

// ValidationError describes malformed input. It matches ErrValidation with
// errors.Is.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// fromValidation converts ozzo field errors; any other error passes through.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	msgs := make([]string, 0, len(fieldErrs))
	for name, fe := range fieldErrs {
		fields[name] = fe.Error()
	}
	for _, name := range sortedKeys(fields) {
		msgs = append(msgs, name+": "+fields[name])
	}
	return &ValidationError{Message: strings.Join(msgs, "; "), Fields: fields}
}
