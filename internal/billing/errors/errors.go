package errors

import "errors"

var (
	ErrNotFound = errors.New("bill not found")

	ErrInvalidID = errors.New("invalid bill ID format")

	ErrPrescriptionNotFound = errors.New("prescription not found on bill")
)
