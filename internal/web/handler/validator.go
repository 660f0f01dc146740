package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type (
	// ErrorResponse represents a validation error response.
	ErrorResponse struct {
		Error       bool
		FailedField string
		Tag         string
		Value       interface{}
	}

	// XValidator validates form structs.
	XValidator struct{}
)

var validate = validator.New() //nolint:gochecknoglobals

// Validate performs validation on the provided data and returns a slice of ErrorResponse.
func (v XValidator) Validate(data interface{}) []ErrorResponse {
	var (
		validationErrors []ErrorResponse
		errs             validator.ValidationErrors
	)

	if err := validate.Struct(data); err != nil {
		if !errors.As(err, &errs) {
			return []ErrorResponse{{Error: true, Tag: err.Error()}}
		}

		for _, err := range errs {
			validationErrors = append(validationErrors, ErrorResponse{
				Error:       true,
				FailedField: err.Field(),
				Tag:         err.Tag(),
				Value:       err.Value(),
			})
		}
	}

	return validationErrors
}
