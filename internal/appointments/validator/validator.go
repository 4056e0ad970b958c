package validator

import (
	"strings"
	"time"

	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the booking-specific field
// rules shared by every appointment request.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration can only fail for blank tags; these are constants.
	_ = v.RegisterValidation("bookdate", validDate)
	_ = v.RegisterValidation("preferredtime", validPreferredTime)
	_ = v.RegisterValidation("dayperiod", validDayPeriod)

	return &Validator{validate: v}
}

// ValidateStruct checks a request DTO and converts failures into a
// field-keyed validation error.
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
	case "max":
		return "exceeds the maximum length of " + fe.Param()
	case "bookdate":
		return "must be a date in YYYY-MM-DD format"
	case "preferredtime":
		return "must be a time in HH:MM format or one of: morning, afternoon, evening"
	case "dayperiod":
		return "must be one of: morning, afternoon, evening"
	}
	return "is invalid"
}

func validDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

func validClockTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.TimeLayout, fl.Field().String())
	return err == nil
}

// validPreferredTime accepts either a clock time or a named period, so
// callers can send "morning" where they would send "09:00".
func validPreferredTime(fl validator.FieldLevel) bool {
	return validClockTime(fl) || validDayPeriod(fl)
}

func validDayPeriod(fl validator.FieldLevel) bool {
	_, ok := config.DayPeriods[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	return ok
}
