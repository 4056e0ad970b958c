package service

import (
	"context"
	"errors"
	"fmt"

	appointmenterrors "medibook/internal/appointments/errors"
	scheduleservice "medibook/internal/schedules/service"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
	"medibook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// Reschedule moves an appointment to a new slot chosen from the patient's
// preference. Preconditions are checked in a fixed order: status first,
// then the reschedule limit, then the lead time. The old slot's release
// and the new slot's acquisition commit atomically; a full target slot
// aborts the whole move and the appointment keeps its original slot.
func (s *AppointmentService) Reschedule(ctx context.Context, patientID, bookingCode string, req *RescheduleRequest) (*model.Appointment, error) {
	pref := scheduleservice.SlotPreference{
		FromDate: req.PreferredDate,
		Time:     req.PreferredTime,
		Period:   sanitizer.NormalizePreference(req.PreferredPeriod),
	}
	// A named period sent in the time field works the same as the
	// period field.
	if p := sanitizer.NormalizePreference(req.PreferredTime); p != "" {
		if _, ok := config.DayPeriods[p]; ok {
			pref.Time = ""
			pref.Period = p
		}
	}

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

		if !reschedulable(appointment.Status) {
			return apperrors.InvalidStatusTransition(appointment.Status)
		}
		if appointment.RescheduleCount >= s.cfg.RescheduleLimit {
			return apperrors.RescheduleLimitExceeded(s.cfg.RescheduleLimit)
		}
		startAt, err := appointment.StartAt(s.loc)
		if err != nil {
			return apperrors.Internal("stored appointment has unparseable schedule coordinates", err)
		}
		if startAt.Sub(s.now().In(s.loc)) <= s.cfg.RescheduleLeadTime {
			return apperrors.LeadTimeViolation(fmt.Sprintf(
				"appointments can only be rescheduled more than %s before their start", s.cfg.RescheduleLeadTime))
		}

		oldSchedule, oldSlot, err := s.slots.Release(sessCtx, appointment.ScheduleID, appointment.BookingCode)
		if err != nil {
			return err
		}

		target, targetSlot, err := s.finder.FindAvailable(sessCtx, appointment.DoctorID, pref)
		if err != nil {
			return err
		}

		newSchedule, newSlot, err := s.slots.Acquire(sessCtx,
			model.SlotRef{ScheduleID: target.ID, SlotID: targetSlot.SlotID},
			appointment.BookingCode)
		if err != nil {
			return err
		}

		entry := model.RescheduleEntry{
			OldScheduleID: appointment.ScheduleID,
			OldDate:       appointment.Date,
			OldStartTime:  appointment.StartTime,
			OldEndTime:    appointment.EndTime,
			NewScheduleID: newSchedule.ID,
			NewDate:       newSchedule.Date,
			NewStartTime:  newSlot.StartTime,
			NewEndTime:    newSlot.EndTime,
			ChangedBy:     patientID,
			ChangedAt:     s.now().UTC(),
		}

		if newSchedule.Date != appointment.Date {
			maxQueue, err := s.appointments.MaxQueueNumber(sessCtx, appointment.DoctorID, newSchedule.Date)
			if err != nil {
				return err
			}
			appointment.QueueNumber = maxQueue + 1
		}

		appointment.ScheduleID = newSchedule.ID
		appointment.SlotID = newSlot.SlotID
		appointment.Date = newSchedule.Date
		appointment.StartTime = newSlot.StartTime
		appointment.EndTime = newSlot.EndTime
		appointment.Status = model.AppointmentStatusRescheduled
		appointment.IsRescheduled = true
		appointment.RescheduleCount++
		appointment.RescheduleHistory = append(appointment.RescheduleHistory, entry)

		if err := s.appointments.Replace(sessCtx, appointment); err != nil {
			return err
		}

		if oldSlot != nil {
			s.registerSlotBroadcast(uow, oldSchedule, oldSlot)
		}
		s.registerSlotBroadcast(uow, newSchedule, newSlot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment rescheduled",
		"booking_code", appointment.BookingCode,
		"doctor_id", appointment.DoctorID,
		"date", appointment.Date,
		"reschedule_count", appointment.RescheduleCount)
	return appointment, nil
}

// reschedulable reports whether a patient may reschedule from this
// status. Confirmed appointments are locked to their slot; the clinic
// has already planned around them.
func reschedulable(status string) bool {
	switch status {
	case model.AppointmentStatusPending, model.AppointmentStatusRescheduled:
		return true
	}
	return false
}
