package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
)

func TestBook_CreatesPendingAppointmentWithBill(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 3)))

	appt, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1",
		SlotID:   "sched-1_slot-a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Status != model.AppointmentStatusPending {
		t.Errorf("expected pending status, got %s", appt.Status)
	}
	if !strings.HasPrefix(appt.BookingCode, "APT-") {
		t.Errorf("unexpected booking code: %s", appt.BookingCode)
	}
	if appt.QueueNumber != 1 {
		t.Errorf("expected queue number 1, got %d", appt.QueueNumber)
	}
	if appt.ConsultationFee != 150000 {
		t.Errorf("expected doctor base fee 150000, got %d", appt.ConsultationFee)
	}
	if appt.DoctorName != "Dr. Binh" || appt.Date != "2026-09-10" {
		t.Errorf("denormalized fields missing: %+v", appt)
	}

	s, _ := f.schedules.FindByID(context.Background(), "sched-1")
	if s.TimeSlots[0].BookedCount != 1 {
		t.Errorf("expected slot booked_count 1, got %d", s.TimeSlots[0].BookedCount)
	}
	if !s.TimeSlots[0].Holds(appt.BookingCode) {
		t.Error("expected slot to hold the booking code")
	}

	bill, err := f.bills.FindByBookingCode(context.Background(), appt.BookingCode)
	if err != nil {
		t.Fatalf("expected bill to exist: %v", err)
	}
	if bill.Consultation.Amount != 150000 || bill.Consultation.Status != model.BillStatusPending {
		t.Errorf("unexpected consultation sub-bill: %+v", bill.Consultation)
	}
	if bill.OverallStatus != model.OverallStatusUnpaid {
		t.Errorf("expected unpaid bill, got %s", bill.OverallStatus)
	}
}

func TestBook_QueueNumbersAreSequentialPerDoctorDay(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10",
			slot("slot-a", "08:00", "08:30", 2),
			slot("slot-b", "08:30", "09:00", 2)))

	seen := make(map[int]bool)
	for i := 0; i < 4; i++ {
		slotID := "sched-1_slot-a"
		if i >= 2 {
			slotID = "sched-1_slot-b"
		}
		appt, err := f.svc.Book(context.Background(), fmt.Sprintf("patient-%d", i), &BookRequest{
			DoctorID: "doc-1",
			SlotID:   slotID,
		})
		if err != nil {
			t.Fatalf("booking %d: unexpected error: %v", i, err)
		}
		if seen[appt.QueueNumber] {
			t.Errorf("queue number %d assigned twice", appt.QueueNumber)
		}
		seen[appt.QueueNumber] = true
		if appt.QueueNumber != i+1 {
			t.Errorf("expected queue number %d, got %d", i+1, appt.QueueNumber)
		}
	}
}

func TestBook_CapacityExceededFailsWithoutSideEffects(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 1)))

	if _, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-1_slot-a",
	}); err != nil {
		t.Fatalf("first booking must succeed: %v", err)
	}

	_, err := f.svc.Book(context.Background(), "patient-2", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-1_slot-a",
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeCapacityExceeded {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}

	if len(f.appointments.byCode) != 1 {
		t.Errorf("failed booking must not create an appointment, have %d", len(f.appointments.byCode))
	}
	if len(f.bills.byCode) != 1 {
		t.Errorf("failed booking must not create a bill, have %d", len(f.bills.byCode))
	}
}

func TestBook_MalformedSlotRef(t *testing.T) {
	f := newFixture(testDoctor())

	_, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1", SlotID: "not-a-ref",
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeInvalidSlotReference {
		t.Fatalf("expected INVALID_SLOT_REFERENCE, got %v", err)
	}
}

func TestBook_UnknownScheduleOrSlot(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 3)))

	for _, ref := range []string{"missing_slot-a", "sched-1_missing"} {
		_, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
			DoctorID: "doc-1", SlotID: ref,
		})
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.Code != apperrors.CodeSlotNotFound {
			t.Errorf("Book(%q): expected SLOT_NOT_FOUND, got %v", ref, err)
		}
	}
}

func TestBook_SlotOfAnotherDoctorRejected(t *testing.T) {
	f := newFixture(testDoctor(),
		&model.Schedule{
			ID:        "sched-x",
			DoctorID:  "doc-other",
			Date:      "2026-09-10",
			TimeSlots: []model.TimeSlot{slot("slot-a", "08:00", "08:30", 3)},
		})

	_, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-x_slot-a",
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

// Doctor and fee reads share the booking's transaction so the
// persisted amounts can never be stale relative to the commit.
func TestBook_ReadsDoctorAndFeesInsideTransaction(t *testing.T) {
	f := newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 3)))

	doctorInTxn := false
	f.doctors.onFind = func() {
		doctorInTxn = f.appointments.inTxn
	}
	feesInTxn := false
	f.services.activeForDoctor = func(serviceID, doctorID string) (*model.MedicalService, error) {
		feesInTxn = f.appointments.inTxn
		return &model.MedicalService{ID: serviceID, DoctorID: doctorID, Price: 200000}, nil
	}

	if _, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-1_slot-a", ServiceID: "svc-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !doctorInTxn {
		t.Error("expected the doctor lookup to run inside the transaction")
	}
	if !feesInTxn {
		t.Error("expected fee resolution to run inside the transaction")
	}
}

func TestBook_InactiveDoctorRejected(t *testing.T) {
	doctor := testDoctor()
	doctor.IsActive = false
	f := newFixture(doctor,
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 3)))

	_, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID: "doc-1", SlotID: "sched-1_slot-a",
	})
	if appErr, ok := apperrors.AsAppError(err); !ok || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for inactive doctor, got %v", err)
	}
}
