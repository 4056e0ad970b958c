package service

import (
	"context"
	"errors"
	"time"

	doctorerrors "medibook/internal/doctors/errors"
	"medibook/internal/schedules/broadcast"
	mongotx "medibook/pkg/db/mongo"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Book creates a pending appointment in the referenced slot, assigns the
// next queue number for the doctor's day and opens the bill, all in one
// transaction. The doctor record and fee data are read inside the same
// session so the persisted amounts match what was committed. The
// slot-update broadcast fires only after commit.
func (s *AppointmentService) Book(ctx context.Context, patientID string, req *BookRequest) (*model.Appointment, error) {
	ref, err := model.ParseSlotRef(req.SlotID)
	if err != nil {
		return nil, apperrors.InvalidSlotReference(req.SlotID)
	}

	bookingCode := newBookingCode()
	var appointment *model.Appointment

	err = s.appointments.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext, uow *mongotx.UnitOfWork) error {
		doctor, err := s.doctors.FindByID(sessCtx, req.DoctorID)
		if err != nil {
			if errors.Is(err, doctorerrors.ErrDoctorNotFound) || errors.Is(err, doctorerrors.ErrInvalidID) {
				return apperrors.NotFoundWithID("doctor", req.DoctorID)
			}
			return err
		}
		if !doctor.IsActive {
			return apperrors.InvalidInput("doctor is not accepting appointments")
		}

		serviceFee, serviceID, err := s.resolveServiceFee(sessCtx, doctor, req.ServiceID)
		if err != nil {
			return err
		}

		schedule, slot, err := s.slots.Acquire(sessCtx, ref, bookingCode)
		if err != nil {
			return err
		}
		if schedule.DoctorID != req.DoctorID {
			return apperrors.InvalidInput("slot does not belong to the requested doctor")
		}

		maxQueue, err := s.appointments.MaxQueueNumber(sessCtx, schedule.DoctorID, schedule.Date)
		if err != nil {
			return err
		}

		total := doctor.ConsultationFee + serviceFee
		appointment = &model.Appointment{
			BookingCode:   bookingCode,
			PatientID:     patientID,
			DoctorID:      doctor.ID,
			DoctorName:    doctor.Name,
			HospitalName:  doctor.HospitalName,
			SpecialtyName: doctor.SpecialtyName,
			ServiceID:     serviceID,
			ScheduleID:    schedule.ID,
			SlotID:        slot.SlotID,
			Date:          schedule.Date,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			Status:        model.AppointmentStatusPending,
			QueueNumber:   maxQueue + 1,

			ConsultationFee: doctor.ConsultationFee,
			AdditionalFees:  serviceFee,
			TotalAmount:     total,
		}
		if err := s.appointments.Create(sessCtx, appointment); err != nil {
			return err
		}

		bill := &model.Bill{
			AppointmentID: appointment.ID,
			BookingCode:   bookingCode,
			PatientID:     patientID,
			Consultation:  model.SubBill{Amount: total, Status: model.BillStatusPending},
			Medication:    model.SubBill{Status: model.BillStatusPending},
			Hospitalization: model.SubBill{
				Status: model.BillStatusPending,
			},
		}
		bill.Recompute()
		if err := s.bills.Create(sessCtx, bill); err != nil {
			return err
		}

		s.registerSlotBroadcast(uow, schedule, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment booked",
		"booking_code", appointment.BookingCode,
		"doctor_id", appointment.DoctorID,
		"date", appointment.Date,
		"queue_number", appointment.QueueNumber)
	return appointment, nil
}

// registerSlotBroadcast snapshots the slot now and defers the publish to
// after commit. The snapshot is taken eagerly: the slot pointer must not
// be read once the transaction closure returns.
func (s *AppointmentService) registerSlotBroadcast(uow *mongotx.UnitOfWork, schedule *model.Schedule, slot *model.TimeSlot) {
	event := broadcast.SlotUpdateEvent{
		DoctorID:  schedule.DoctorID,
		Date:      schedule.Date,
		Slot:      broadcast.Snapshot(slot),
		EmittedAt: time.Now().UTC(),
	}
	uow.OnCommit(func(ctx context.Context) {
		// Broadcast failures are logged by the broadcaster and dropped:
		// the booking is already committed.
		_ = s.broadcaster.PublishSlotUpdate(ctx, event)
	})
}
