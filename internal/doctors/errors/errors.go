package errors

import "errors"

var (
	ErrDoctorNotFound = errors.New("doctor not found")

	ErrServiceNotFound = errors.New("medical service not found")

	ErrInvalidID = errors.New("invalid ID format")
)
