package service

import (
	"context"
	"errors"
	"sort"
	"time"

	scheduleerrors "medibook/internal/schedules/errors"
	"medibook/internal/schedules/repository"
	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

// SlotPreference narrows the search for a replacement slot. Time and
// Period are mutually exclusive; when both are empty the earliest
// available slot wins.
type SlotPreference struct {
	FromDate string // earliest acceptable date, inclusive
	Time     string // preferred start time, matched within a configured hour window
	Period   string // named day period: morning, afternoon, evening
}

// SlotFinder searches a doctor's upcoming schedules for a slot with
// remaining capacity.
type SlotFinder struct {
	repo       repository.ScheduleRepository
	windowDays int
	hourWindow int
	log        *logger.Logger
}

func NewSlotFinder(repo repository.ScheduleRepository, cfg *config.Config) *SlotFinder {
	return &SlotFinder{
		repo:       repo,
		windowDays: cfg.ScheduleSearchWindowDays,
		hourWindow: cfg.PreferredHourWindow,
		log:        cfg.Log,
	}
}

// FindAvailable returns the first slot with remaining capacity that
// matches the preference, scanning schedules in date order and slots in
// start-time order. When no slot matches the preference the earliest
// available slot is returned instead; preference narrows, it never
// empties, the search.
func (f *SlotFinder) FindAvailable(ctx context.Context, doctorID string, pref SlotPreference) (*model.Schedule, *model.TimeSlot, error) {
	schedules, err := f.repo.FindByDoctorFromDate(ctx, doctorID, pref.FromDate, f.windowDays)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, nil, apperrors.NoAvailableSlot()
		}
		return nil, nil, err
	}

	var fallbackSchedule *model.Schedule
	var fallbackSlot *model.TimeSlot

	for _, schedule := range schedules {
		slots := make([]*model.TimeSlot, 0, len(schedule.TimeSlots))
		for i := range schedule.TimeSlots {
			slots = append(slots, &schedule.TimeSlots[i])
		}
		sort.Slice(slots, func(i, j int) bool {
			return slots[i].StartTime < slots[j].StartTime
		})

		for _, slot := range slots {
			if !slot.Available() {
				continue
			}
			if fallbackSchedule == nil {
				fallbackSchedule = schedule
				fallbackSlot = slot
			}
			if f.matches(slot, pref) {
				return schedule, slot, nil
			}
		}
	}

	if fallbackSchedule != nil {
		f.log.Info("no slot matched preference, falling back to earliest available",
			"doctor_id", doctorID,
			"from_date", pref.FromDate,
			"slot_id", fallbackSlot.SlotID)
		return fallbackSchedule, fallbackSlot, nil
	}

	return nil, nil, apperrors.NoAvailableSlot()
}

func (f *SlotFinder) matches(slot *model.TimeSlot, pref SlotPreference) bool {
	hour := slot.StartHour()
	if hour < 0 {
		return false
	}

	if pref.Time != "" {
		preferred, err := time.Parse(model.TimeLayout, pref.Time)
		if err != nil {
			return false
		}
		diff := hour - preferred.Hour()
		if diff < 0 {
			diff = -diff
		}
		return diff <= f.hourWindow
	}

	if pref.Period != "" {
		bounds, ok := config.DayPeriods[pref.Period]
		if !ok {
			return false
		}
		return hour >= bounds[0] && hour < bounds[1]
	}

	return true
}
