package service

import (
	"context"
	"errors"

	appointmenterrors "medibook/internal/appointments/errors"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
)

const defaultListLimit = 50

// ListMine returns the patient's appointments, newest first. All
// statuses are included; the history is part of the record.
func (s *AppointmentService) ListMine(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	appointments, err := s.appointments.FindByPatient(ctx, patientID, defaultListLimit)
	if err != nil {
		return nil, err
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	return appointments, nil
}

// Get returns one appointment by booking code, scoped to the patient.
func (s *AppointmentService) Get(ctx context.Context, patientID, bookingCode string) (*model.Appointment, error) {
	appointment, err := s.appointments.FindByBookingCodeAndPatient(ctx, bookingCode, patientID)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("appointment", bookingCode)
		}
		return nil, err
	}
	return appointment, nil
}
