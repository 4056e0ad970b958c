package service

import (
	"context"
	"testing"

	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
)

func newSlotStore(schedules ...*model.Schedule) (*SlotStore, *stubScheduleRepo) {
	repo := &stubScheduleRepo{schedules: schedules}
	return NewSlotStore(repo, finderConfig().Log), repo
}

func TestAcquire_ReservesCapacity(t *testing.T) {
	store, repo := newSlotStore(day("d1", "2026-09-13", ts("a", "08:00", 2, 0)))

	schedule, slot, err := store.Acquire(context.Background(),
		model.SlotRef{ScheduleID: "d1", SlotID: "a"}, "APT-ONE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule.ID != "d1" || slot.BookedCount != 1 {
		t.Errorf("expected count 1 on d1, got %d on %s", slot.BookedCount, schedule.ID)
	}
	if !slot.Holds("APT-ONE") {
		t.Error("expected slot to hold APT-ONE")
	}

	stored, _ := repo.FindByID(context.Background(), "d1")
	if stored.TimeSlots[0].BookedCount != 1 {
		t.Errorf("expected persisted count 1, got %d", stored.TimeSlots[0].BookedCount)
	}
}

func TestAcquire_FullSlotRejected(t *testing.T) {
	store, _ := newSlotStore(day("d1", "2026-09-13", ts("a", "08:00", 1, 1)))

	_, _, err := store.Acquire(context.Background(),
		model.SlotRef{ScheduleID: "d1", SlotID: "a"}, "APT-ONE")
	if appErr, ok := apperrors.AsAppError(err); !ok || appErr.Code != apperrors.CodeCapacityExceeded {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}
}

func TestAcquire_UnknownScheduleOrSlot(t *testing.T) {
	store, _ := newSlotStore(day("d1", "2026-09-13", ts("a", "08:00", 1, 0)))

	for _, ref := range []model.SlotRef{
		{ScheduleID: "missing", SlotID: "a"},
		{ScheduleID: "d1", SlotID: "missing"},
	} {
		_, _, err := store.Acquire(context.Background(), ref, "APT-ONE")
		if appErr, ok := apperrors.AsAppError(err); !ok || appErr.Code != apperrors.CodeSlotNotFound {
			t.Errorf("ref %s: expected SLOT_NOT_FOUND, got %v", ref.String(), err)
		}
	}
}

func TestRelease_FreesHeldCapacity(t *testing.T) {
	store, _ := newSlotStore(day("d1", "2026-09-13",
		ts("a", "08:00", 1, 0),
		ts("b", "08:00", 1, 0)))

	// Two slots share the same interval; release must pick by membership.
	if _, _, err := store.Acquire(context.Background(),
		model.SlotRef{ScheduleID: "d1", SlotID: "b"}, "APT-ONE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, released, err := store.Release(context.Background(), "d1", "APT-ONE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released.SlotID != "b" || released.BookedCount != 0 {
		t.Errorf("expected slot b freed, got %s with count %d", released.SlotID, released.BookedCount)
	}
}

func TestRelease_NotHeldIsNoop(t *testing.T) {
	store, _ := newSlotStore(day("d1", "2026-09-13", ts("a", "08:00", 1, 0)))

	schedule, released, err := store.Release(context.Background(), "d1", "APT-GHOST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != nil {
		t.Errorf("expected nil slot for unheld appointment, got %+v", released)
	}
	if schedule == nil {
		t.Error("expected schedule to be returned")
	}
}
