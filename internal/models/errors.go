package models

import (
	"errors"
	"fmt"
)

// ErrValidation reports an invalid model field.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Validation messages shared by models.
var (
	ErrNameRequired        = errors.New("name is required")
	ErrURLRequired         = errors.New("url is required")
	ErrInvalidURL          = errors.New("invalid URL format")
	ErrCredentialsRequired = errors.New("username and password are required")
)
