package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	// Booking engine codes. All caller-recoverable; see the per-constructor
	// HTTP statuses below.
	CodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	CodeInvalidSlotReference    = "INVALID_SLOT_REFERENCE"
	CodeSlotNotFound            = "SLOT_NOT_FOUND"
	CodeCapacityExceeded        = "CAPACITY_EXCEEDED"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeRescheduleLimitExceeded = "RESCHEDULE_LIMIT_EXCEEDED"
	CodeLeadTimeViolation       = "LEAD_TIME_VIOLATION"
	CodeNoAvailableSlot         = "NO_AVAILABLE_SLOT"
	CodeTransactionFailed       = "TRANSACTION_FAILED"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func AuthenticationRequired() *AppError {
	return &AppError{
		Code:       CodeAuthenticationRequired,
		Message:    "Authenticated actor identity is required",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func InvalidSlotReference(ref string) *AppError {
	return &AppError{
		Code:       CodeInvalidSlotReference,
		Message:    "Malformed slot reference",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"slot_id": ref},
	}
}

func SlotNotFound() *AppError {
	return &AppError{
		Code:       CodeSlotNotFound,
		Message:    "Schedule or time slot no longer exists",
		HTTPStatus: http.StatusNotFound,
	}
}

func CapacityExceeded() *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    "Time slot has reached its booking capacity",
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidStatusTransition(status string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatusTransition,
		Message:    "Appointment status does not allow this operation",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"status": status},
	}
}

func RescheduleLimitExceeded(limit int) *AppError {
	return &AppError{
		Code:       CodeRescheduleLimitExceeded,
		Message:    "Appointment has reached its reschedule limit",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"limit": limit},
	}
}

func LeadTimeViolation(message string) *AppError {
	return &AppError{
		Code:       CodeLeadTimeViolation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func NoAvailableSlot() *AppError {
	return &AppError{
		Code:       CodeNoAvailableSlot,
		Message:    "No available slot matches the requested date and time",
		HTTPStatus: http.StatusConflict,
	}
}

func TransactionFailed(err error) *AppError {
	return &AppError{
		Code:       CodeTransactionFailed,
		Message:    "Operation could not be completed, no changes were applied",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
