package service

import (
	"context"
	"testing"

	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
)

func TestCancel_ReleasesSlotAndVoidsBill(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 1)))
	appt := bookOne(t, f, "")

	cancelled, err := f.svc.Cancel(context.Background(), "patient-1", appt.BookingCode, &CancelRequest{
		Reason: "  feeling \t better  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != model.AppointmentStatusCancelled || !cancelled.IsCancelled {
		t.Errorf("expected cancelled appointment, got %+v", cancelled)
	}
	if cancelled.CancellationReason != "feeling better" {
		t.Errorf("expected sanitized reason, got %q", cancelled.CancellationReason)
	}

	s, _ := f.schedules.FindByID(context.Background(), "sched-1")
	if s.TimeSlots[0].BookedCount != 0 || s.TimeSlots[0].IsBooked {
		t.Errorf("expected freed slot, got count=%d booked=%v", s.TimeSlots[0].BookedCount, s.TimeSlots[0].IsBooked)
	}

	bill, _ := f.bills.FindByBookingCode(context.Background(), appt.BookingCode)
	if bill.Consultation.Status != model.BillStatusCancelled {
		t.Errorf("expected cancelled consultation sub-bill, got %s", bill.Consultation.Status)
	}
}

func TestCancel_FreedCapacityIsRebookable(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 1)))
	appt := bookOne(t, f, "")

	if _, err := f.svc.Cancel(context.Background(), "patient-1", appt.BookingCode, &CancelRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rebooked, err := f.svc.Book(context.Background(), "patient-2", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-1_slot-a",
	})
	if err != nil {
		t.Fatalf("expected freed slot to be bookable: %v", err)
	}

	// The cancelled appointment's queue number is not reused.
	if rebooked.QueueNumber != appt.QueueNumber+1 {
		t.Errorf("expected queue number %d, got %d", appt.QueueNumber+1, rebooked.QueueNumber)
	}
}

func TestCancel_TerminalStatusesRejected(t *testing.T) {
	for _, status := range []string{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusRejected,
		model.AppointmentStatusNoShow,
	} {
		f := newFixture(testDoctor(),
			testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 1)))
		appt := bookOne(t, f, "")
		appt.Status = status

		_, err := f.svc.Cancel(context.Background(), "patient-1", appt.BookingCode, &CancelRequest{})
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.Code != apperrors.CodeInvalidStatusTransition {
			t.Errorf("Cancel from %s: expected INVALID_STATUS_TRANSITION, got %v", status, err)
		}
	}
}

func TestCancel_UnknownBookingCode(t *testing.T) {
	f := newFixture(testDoctor())

	_, err := f.svc.Cancel(context.Background(), "patient-1", "APT-NOPE", &CancelRequest{})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCancel_OtherPatientsAppointmentHidden(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 1)))
	appt := bookOne(t, f, "")

	_, err := f.svc.Cancel(context.Background(), "patient-2", appt.BookingCode, &CancelRequest{})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for foreign appointment, got %v", err)
	}
}
