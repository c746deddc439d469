// Package validation carries field-level input errors from services to handlers.
package validation

import (
	"errors"
	"fmt"
)

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// As returns the validation error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
