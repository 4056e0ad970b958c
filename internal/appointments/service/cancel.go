package service

import (
	"context"
	"errors"

	appointmenterrors "medibook/internal/appointments/errors"
	billingerrors "medibook/internal/billing/errors"
	mongotx "medibook/pkg/db/mongo"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
	"medibook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const maxCancellationReasonLen = 500

// Cancel releases the appointment's slot, marks it cancelled and voids
// the unpaid parts of its bill, all in one transaction. The appointment
// document is kept; cancellation is a terminal status, not a delete.
func (s *AppointmentService) Cancel(ctx context.Context, patientID, bookingCode string, req *CancelRequest) (*model.Appointment, error) {
	reason := sanitizer.Truncate(sanitizer.NormalizeFreeText(req.Reason), maxCancellationReasonLen)

	var appointment *model.Appointment
	err := s.appointments.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext, uow *mongotx.UnitOfWork) error {
		var err error
		appointment, err = s.appointments.FindByBookingCodeAndPatient(sessCtx, bookingCode, patientID)
		if err != nil {
			if errors.Is(err, appointmenterrors.ErrNotFound) {
				return apperrors.NotFoundWithID("appointment", bookingCode)
			}
			return err
		}

		if !cancellable(appointment.Status) {
			return apperrors.InvalidStatusTransition(appointment.Status)
		}

		schedule, slot, err := s.slots.Release(sessCtx, appointment.ScheduleID, appointment.BookingCode)
		if err != nil {
			return err
		}

		appointment.Status = model.AppointmentStatusCancelled
		appointment.IsCancelled = true
		appointment.CancellationReason = reason
		if err := s.appointments.Replace(sessCtx, appointment); err != nil {
			return err
		}

		if err := s.voidUnpaidBill(sessCtx, bookingCode); err != nil {
			return err
		}

		if slot != nil {
			s.registerSlotBroadcast(uow, schedule, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment cancelled",
		"booking_code", appointment.BookingCode,
		"doctor_id", appointment.DoctorID,
		"date", appointment.Date)
	return appointment, nil
}

// cancellable reports whether a patient may cancel from this status.
func cancellable(status string) bool {
	switch status {
	case model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusRescheduled:
		return true
	}
	return false
}

// voidUnpaidBill flips every still-pending sub-bill to cancelled. Paid
// sub-bills are untouched; refunds are a separate back-office flow.
func (s *AppointmentService) voidUnpaidBill(ctx context.Context, bookingCode string) error {
	bill, err := s.bills.FindByBookingCode(ctx, bookingCode)
	if err != nil {
		if errors.Is(err, billingerrors.ErrNotFound) {
			s.log.Warn("no bill found for cancelled appointment", "booking_code", bookingCode)
			return nil
		}
		return err
	}

	for _, sub := range []*model.SubBill{&bill.Consultation, &bill.Medication, &bill.Hospitalization} {
		if sub.Status == model.BillStatusPending {
			sub.Status = model.BillStatusCancelled
		}
		for i := range sub.Prescriptions {
			if sub.Prescriptions[i].Status == model.BillStatusPending {
				sub.Prescriptions[i].Status = model.BillStatusCancelled
			}
		}
	}
	bill.Recompute()

	return s.bills.Replace(ctx, bill)
}
