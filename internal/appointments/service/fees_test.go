package service

import (
	"context"
	"testing"

	"medibook/pkg/model"
)

func bookOne(t *testing.T, f *fixture, serviceID string) *model.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), "patient-1", &BookRequest{
		DoctorID:  "doc-1",
		SlotID:    "sched-1_slot-a",
		ServiceID: serviceID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return appt
}

func feeFixture() *fixture {
	return newFixture(testDoctor(),
		testSchedule("sched-1", "2026-09-10", slot("slot-a", "08:00", "08:30", 3)))
}

// assertFees checks the fee composition: the doctor's consultation fee
// is always charged, the resolved service price lands in additional
// fees, and the total and the bill carry the sum.
func assertFees(t *testing.T, f *fixture, appt *model.Appointment, additional int64, serviceID string) {
	t.Helper()
	if appt.ConsultationFee != 150000 {
		t.Errorf("expected consultation fee 150000, got %d", appt.ConsultationFee)
	}
	if appt.AdditionalFees != additional {
		t.Errorf("expected additional fees %d, got %d", additional, appt.AdditionalFees)
	}
	if want := appt.ConsultationFee + additional; appt.TotalAmount != want {
		t.Errorf("expected total %d, got %d", want, appt.TotalAmount)
	}
	if appt.ServiceID != serviceID {
		t.Errorf("expected service id %q, got %q", serviceID, appt.ServiceID)
	}

	bill, err := f.bills.FindByBookingCode(context.Background(), appt.BookingCode)
	if err != nil {
		t.Fatalf("expected bill to exist: %v", err)
	}
	if bill.Consultation.Amount != appt.TotalAmount {
		t.Errorf("expected bill consultation amount %d, got %d", appt.TotalAmount, bill.Consultation.Amount)
	}
}

func TestFeeResolution_CallerServiceWins(t *testing.T) {
	f := feeFixture()
	f.services.activeForDoctor = func(serviceID, doctorID string) (*model.MedicalService, error) {
		return &model.MedicalService{ID: serviceID, DoctorID: doctorID, Price: 300000}, nil
	}

	appt := bookOne(t, f, "svc-9")
	assertFees(t, f, appt, 300000, "svc-9")
}

func TestFeeResolution_InvalidCallerServiceFallsThrough(t *testing.T) {
	f := feeFixture()
	// activeForDoctor stays nil: the named service does not resolve.
	f.services.firstByDoctor = func(doctorID, specialtyID string) (*model.MedicalService, error) {
		return &model.MedicalService{ID: "svc-own", Price: 250000}, nil
	}

	appt := bookOne(t, f, "svc-bogus")
	assertFees(t, f, appt, 250000, "svc-own")
}

func TestFeeResolution_CheapestExaminationInSpecialty(t *testing.T) {
	f := feeFixture()
	f.services.cheapestByType = func(specialtyID, serviceType string) (*model.MedicalService, error) {
		if serviceType != model.ServiceTypeExamination {
			t.Errorf("expected examination lookup, got %s", serviceType)
		}
		return &model.MedicalService{ID: "svc-exam", Price: 180000}, nil
	}

	appt := bookOne(t, f, "")
	assertFees(t, f, appt, 180000, "svc-exam")
}

func TestFeeResolution_CheapestAnyServiceInSpecialty(t *testing.T) {
	f := feeFixture()
	f.services.cheapest = func(specialtyID string) (*model.MedicalService, error) {
		return &model.MedicalService{ID: "svc-any", Price: 90000}, nil
	}

	appt := bookOne(t, f, "")
	assertFees(t, f, appt, 90000, "svc-any")
}

func TestFeeResolution_NoServiceMeansNoAdditionalFee(t *testing.T) {
	f := feeFixture()

	appt := bookOne(t, f, "")
	assertFees(t, f, appt, 0, "")
}

// The doctor's fee and the resolved service fee are independent
// components; neither replaces the other in the total.
func TestFeeResolution_DoctorFeeAndServiceFeeBothCharged(t *testing.T) {
	f := feeFixture()
	f.services.activeForDoctor = func(serviceID, doctorID string) (*model.MedicalService, error) {
		return &model.MedicalService{ID: serviceID, DoctorID: doctorID, Price: 300000}, nil
	}

	appt := bookOne(t, f, "svc-9")
	if appt.TotalAmount != 450000 {
		t.Errorf("expected total 450000 (150000 consultation + 300000 service), got %d", appt.TotalAmount)
	}
}
