package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrMissingOwner means a caller reached the expense core without an authenticated owner.
	// It is a wiring bug, never a user error.
	ErrMissingOwner = errors.New("owner identity is required")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func NewFieldValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

// ErrOrNil returns ve when at least one error was collected.
func (ve *ValidationErrors) ErrOrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}

// Messages flattens a single or collected validation failure into client-facing messages.
func Messages(err error) []string {
	var validationErrors *ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, len(validationErrors.Errors))
		for i, vErr := range validationErrors.Errors {
			messages[i] = vErr.Error()
		}
		return messages
	}
	var validationError *ValidationError
	if errors.As(err, &validationError) {
		return []string{validationError.Msg}
	}
	return nil
}
