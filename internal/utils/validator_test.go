package utils

import (
	"testing"

	apperrors "github.com/abhiroy829429/AI-Proctoring-System/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventInput struct {
	Type     string `json:"type" validate:"required,event_type"`
	Severity string `json:"severity" validate:"omitempty,event_severity"`
	Source   string `json:"source" validate:"omitempty,event_source"`
	Status   string `json:"status" validate:"omitempty,session_status"`
}

func TestValidator_CustomEnums(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name  string
		input eventInput
		valid bool
	}{
		{"valid minimal", eventInput{Type: "no_face"}, true},
		{"all fields valid", eventInput{Type: "suspicious_object", Severity: "warning", Source: "object_detection", Status: "active"}, true},
		{"missing type", eventInput{}, false},
		{"unknown type", eventInput{Type: "face_swap"}, false},
		{"unknown severity", eventInput{Type: "no_face", Severity: "fatal"}, false},
		{"unknown source", eventInput{Type: "no_face", Source: "webcam"}, false},
		{"unknown status", eventInput{Type: "no_face", Status: "paused"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.input)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidator_ErrorsUseJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(eventInput{Severity: "fatal"})
	require.Error(t, err)

	var ve apperrors.ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 2)

	fields := map[string]string{}
	for _, fieldErr := range ve {
		fields[fieldErr.Field] = fieldErr.Rule
	}
	assert.Equal(t, "required", fields["type"])
	assert.Equal(t, "event_severity", fields["severity"])
}
