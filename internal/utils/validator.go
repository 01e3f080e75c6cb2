package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/abhiroy829429/AI-Proctoring-System/internal/errors"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the custom enum
// validators used by the proctoring request types.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateEventType(fl validator.FieldLevel) bool {
	return models.IsValidEventType(models.EventType(fl.Field().String()))
}

func ValidateEventSeverity(fl validator.FieldLevel) bool {
	return models.IsValidEventSeverity(models.EventSeverity(fl.Field().String()))
}

func ValidateEventSource(fl validator.FieldLevel) bool {
	return models.IsValidEventSource(models.EventSource(fl.Field().String()))
}

func ValidateSessionStatus(fl validator.FieldLevel) bool {
	switch models.SessionStatus(fl.Field().String()) {
	case models.SessionActive, models.SessionCompleted, models.SessionTerminated, models.SessionError:
		return true
	}
	return false
}

// registerCustomValidators registers all custom validators
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("event_type", ValidateEventType)
	validate.RegisterValidation("event_severity", ValidateEventSeverity)
	validate.RegisterValidation("event_source", ValidateEventSource)
	validate.RegisterValidation("session_status", ValidateSessionStatus)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
