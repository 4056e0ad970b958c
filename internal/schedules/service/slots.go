package service

import (
	"context"
	"errors"

	scheduleerrors "medibook/internal/schedules/errors"
	"medibook/internal/schedules/repository"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

// SlotStore performs capacity changes against persisted schedules. Every
// mutation runs in the caller's context, which inside a booking flow is
// the transaction's session context, so the slot write commits or aborts
// together with the appointment write.
type SlotStore struct {
	repo repository.ScheduleRepository
	log  *logger.Logger
}

func NewSlotStore(repo repository.ScheduleRepository, log *logger.Logger) *SlotStore {
	return &SlotStore{repo: repo, log: log}
}

// Acquire reserves one capacity unit of the referenced slot for
// appointmentID and persists the mutated slot. Returns the schedule and
// slot after the mutation so callers can snapshot them for broadcasting.
func (s *SlotStore) Acquire(ctx context.Context, ref model.SlotRef, appointmentID string) (*model.Schedule, *model.TimeSlot, error) {
	schedule, err := s.repo.FindByID(ctx, ref.ScheduleID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) || errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, nil, apperrors.SlotNotFound()
		}
		return nil, nil, err
	}

	slot, ok := schedule.Slot(ref.SlotID)
	if !ok {
		return nil, nil, apperrors.SlotNotFound()
	}

	if err := slot.Acquire(appointmentID); err != nil {
		s.log.Warn("slot acquisition rejected",
			"schedule_id", ref.ScheduleID,
			"slot_id", ref.SlotID,
			"booked_count", slot.BookedCount,
			"max_bookings", slot.MaxBookings)
		return nil, nil, apperrors.CapacityExceeded()
	}

	if err := s.repo.ReplaceSlot(ctx, schedule.ID, slot); err != nil {
		return nil, nil, err
	}

	return schedule, slot, nil
}

// Release frees the capacity held by appointmentID in the given schedule.
// The slot is located by membership, not by time, so slots with identical
// intervals are released correctly. Releasing an appointment no slot
// holds is a no-op and returns a nil slot.
func (s *SlotStore) Release(ctx context.Context, scheduleID, appointmentID string) (*model.Schedule, *model.TimeSlot, error) {
	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) || errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, nil, apperrors.SlotNotFound()
		}
		return nil, nil, err
	}

	slot, ok := schedule.SlotHolding(appointmentID)
	if !ok {
		s.log.Warn("release found no slot holding appointment",
			"schedule_id", scheduleID,
			"appointment_id", appointmentID)
		return schedule, nil, nil
	}

	slot.Release(appointmentID)
	if err := s.repo.ReplaceSlot(ctx, schedule.ID, slot); err != nil {
		return nil, nil, err
	}

	return schedule, slot, nil
}
