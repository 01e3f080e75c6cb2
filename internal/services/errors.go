package services

import (
	"errors"

	apperrors "github.com/abhiroy829429/AI-Proctoring-System/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Session specific errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrSessionIDConflict = errors.New("session identifier already exists")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionNotActive)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}
