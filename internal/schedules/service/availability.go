package service

import (
	"context"
	"errors"
	"sort"

	scheduleerrors "medibook/internal/schedules/errors"
	"medibook/internal/schedules/repository"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

// SlotAvailability is one bookable interval as shown to patients. Ref is
// the opaque reference accepted by the booking endpoint.
type SlotAvailability struct {
	Ref       string `json:"slot_ref"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room,omitempty"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}

// DayAvailability is a doctor's bookable day.
type DayAvailability struct {
	DoctorID string             `json:"doctor_id"`
	Date     string             `json:"date"`
	Slots    []SlotAvailability `json:"slots"`
}

type AvailabilityService struct {
	repo repository.ScheduleRepository
	log  *logger.Logger
}

func NewAvailabilityService(repo repository.ScheduleRepository, log *logger.Logger) *AvailabilityService {
	return &AvailabilityService{repo: repo, log: log}
}

// ForDay returns the slot availability of one doctor on one date.
func (s *AvailabilityService) ForDay(ctx context.Context, doctorID, date string) (*DayAvailability, error) {
	schedule, err := s.repo.FindByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFound("schedule")
		}
		return nil, err
	}

	return dayAvailability(schedule), nil
}

// Upcoming returns the availability of a doctor's next schedules starting
// at fromDate, capped at limit days.
func (s *AvailabilityService) Upcoming(ctx context.Context, doctorID, fromDate string, limit int) ([]*DayAvailability, error) {
	schedules, err := s.repo.FindByDoctorFromDate(ctx, doctorID, fromDate, limit)
	if err != nil {
		return nil, err
	}

	days := make([]*DayAvailability, 0, len(schedules))
	for _, schedule := range schedules {
		days = append(days, dayAvailability(schedule))
	}
	return days, nil
}

func dayAvailability(schedule *model.Schedule) *DayAvailability {
	day := &DayAvailability{
		DoctorID: schedule.DoctorID,
		Date:     schedule.Date,
		Slots:    make([]SlotAvailability, 0, len(schedule.TimeSlots)),
	}

	for i := range schedule.TimeSlots {
		slot := &schedule.TimeSlots[i]
		ref := model.SlotRef{ScheduleID: schedule.ID, SlotID: slot.SlotID}
		day.Slots = append(day.Slots, SlotAvailability{
			Ref:       ref.String(),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Room:      slot.Room,
			Remaining: slot.MaxBookings - slot.BookedCount,
			Available: slot.Available(),
		})
	}

	sort.Slice(day.Slots, func(i, j int) bool {
		return day.Slots[i].StartTime < day.Slots[j].StartTime
	})

	return day
}
