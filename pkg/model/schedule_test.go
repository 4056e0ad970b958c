package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newSlot(max int) TimeSlot {
	return TimeSlot{
		SlotID:      "slot-1",
		StartTime:   "08:00",
		EndTime:     "08:30",
		MaxBookings: max,
	}
}

func TestTimeSlot_AcquireUpToCapacity(t *testing.T) {
	slot := newSlot(3)

	for i := 0; i < 3; i++ {
		if err := slot.Acquire(fmt.Sprintf("appt-%d", i)); err != nil {
			t.Fatalf("acquire %d: unexpected error: %v", i, err)
		}
	}

	if slot.BookedCount != 3 {
		t.Errorf("expected booked_count 3, got %d", slot.BookedCount)
	}
	if !slot.IsBooked {
		t.Error("expected is_booked true at capacity")
	}
	if len(slot.AppointmentIDs) != slot.BookedCount {
		t.Errorf("appointment ids (%d) must match booked_count (%d)", len(slot.AppointmentIDs), slot.BookedCount)
	}

	if err := slot.Acquire("appt-overflow"); !errors.Is(err, ErrSlotCapacityReached) {
		t.Errorf("expected ErrSlotCapacityReached, got %v", err)
	}
	if slot.BookedCount != 3 {
		t.Errorf("failed acquire must not change booked_count, got %d", slot.BookedCount)
	}
}

func TestTimeSlot_AcquireNearCapacity(t *testing.T) {
	slot := newSlot(3)
	slot.AppointmentIDs = []string{"a", "b"}
	slot.recompute()

	if err := slot.Acquire("c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.BookedCount != 3 || !slot.IsBooked {
		t.Errorf("expected booked_count 3 and is_booked true, got %d/%v", slot.BookedCount, slot.IsBooked)
	}
}

func TestTimeSlot_ReleaseIsIdempotent(t *testing.T) {
	slot := newSlot(3)
	if err := slot.Acquire("appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slot.Release("appt-1") {
		t.Error("expected release of held appointment to return true")
	}
	if slot.BookedCount != 0 || slot.IsBooked {
		t.Errorf("expected empty slot, got count=%d booked=%v", slot.BookedCount, slot.IsBooked)
	}

	// Second release finds nothing: no-op, no underflow.
	if slot.Release("appt-1") {
		t.Error("expected release of absent appointment to return false")
	}
	if slot.BookedCount != 0 {
		t.Errorf("booked_count must not go below zero, got %d", slot.BookedCount)
	}
}

func TestTimeSlot_ReleaseClearsIsBooked(t *testing.T) {
	slot := newSlot(1)
	if err := slot.Acquire("appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slot.IsBooked {
		t.Fatal("expected slot full")
	}

	slot.Release("appt-1")
	if slot.IsBooked {
		t.Error("expected is_booked false after release")
	}
}

func TestSchedule_SlotLookup(t *testing.T) {
	s := Schedule{
		TimeSlots: []TimeSlot{
			{SlotID: "a", StartTime: "08:00"},
			{SlotID: "b", StartTime: "08:30"},
		},
	}

	slot, ok := s.Slot("b")
	if !ok || slot.StartTime != "08:30" {
		t.Fatalf("expected slot b at 08:30, got %+v ok=%v", slot, ok)
	}

	if _, ok := s.Slot("missing"); ok {
		t.Error("expected missing slot to report false")
	}

	// Mutations through the returned pointer must be visible in the schedule.
	if err := slot.Acquire("appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TimeSlots[1].BookedCount != 1 {
		t.Error("expected acquire through Slot pointer to mutate the schedule")
	}
}

func TestSchedule_SlotHolding(t *testing.T) {
	s := Schedule{
		TimeSlots: []TimeSlot{
			{SlotID: "a", StartTime: "08:00", MaxBookings: 3},
			// Identical times on purpose: membership, not time equality,
			// must identify the slot.
			{SlotID: "b", StartTime: "08:00", MaxBookings: 3},
		},
	}
	if err := s.TimeSlots[1].Acquire("appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot, ok := s.SlotHolding("appt-1")
	if !ok || slot.SlotID != "b" {
		t.Fatalf("expected slot b to hold appt-1, got %+v ok=%v", slot, ok)
	}

	if _, ok := s.SlotHolding("absent"); ok {
		t.Error("expected no slot to hold an unknown appointment")
	}
}

func TestParseSlotRef(t *testing.T) {
	ref, err := ParseSlotRef("665f1c2b8e4d3a0001a1b2c3_0f8fad5b-d9cb-469f-a165-70867728950e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ScheduleID != "665f1c2b8e4d3a0001a1b2c3" {
		t.Errorf("unexpected schedule id: %s", ref.ScheduleID)
	}
	if ref.SlotID != "0f8fad5b-d9cb-469f-a165-70867728950e" {
		t.Errorf("unexpected slot id: %s", ref.SlotID)
	}

	for _, bad := range []string{"", "noseparator", "_", "abc_", "_def"} {
		if _, err := ParseSlotRef(bad); !errors.Is(err, ErrInvalidSlotRef) {
			t.Errorf("ParseSlotRef(%q): expected ErrInvalidSlotRef, got %v", bad, err)
		}
	}
}

func TestSlotRef_RoundTrip(t *testing.T) {
	orig := SlotRef{ScheduleID: "sched", SlotID: "slot"}
	parsed, err := ParseSlotRef(orig.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != orig {
		t.Errorf("round trip mismatch: %+v != %+v", parsed, orig)
	}
}

func TestCombineDateTime(t *testing.T) {
	at, err := CombineDateTime("2025-03-10", "14:30", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if at.Hour() != 14 || at.Minute() != 30 || at.Day() != 10 {
		t.Errorf("unexpected instant: %v", at)
	}

	if _, err := CombineDateTime("10/03/2025", "14:30", time.UTC); err == nil {
		t.Error("expected error for malformed date")
	}
}
