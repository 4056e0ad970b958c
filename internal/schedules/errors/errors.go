package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule not found")

	ErrInvalidID = errors.New("invalid schedule ID format")

	ErrSlotNotFound = errors.New("time slot not found")

	ErrCapacityExceeded = errors.New("time slot capacity exceeded")
)
