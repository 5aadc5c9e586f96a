package service

import (
	"errors"
	"fmt"

	"github.com/stegverse/cfp-tickets/internal/provider"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrConfiguration means no enabled provider could serve the request.
var ErrConfiguration = provider.ErrNotConfigured

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
