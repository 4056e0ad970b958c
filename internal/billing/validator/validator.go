package validator

import (
	"strings"

	apperrors "medibook/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Validator checks billing request DTOs. Billing rules are plain field
// constraints; no custom tags are needed here.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("request validation failed", nil)
	}

	details := make(map[string]any, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldMessage(fieldErr)
	}
	return apperrors.Validation("request validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "exceeds the maximum length of " + fe.Param()
	}
	return "is invalid"
}
