package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultMaxBookings is the slot capacity applied when a schedule is
	// created without an explicit capacity.
	DefaultMaxBookings = 3

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrSlotNotFound        = errors.New("time slot not found in schedule")
	ErrSlotCapacityReached = errors.New("time slot capacity reached")
	ErrInvalidSlotRef      = errors.New("invalid slot reference")
)

// TimeSlot is one bookable interval inside a schedule. BookedCount and
// IsBooked are derived from AppointmentIDs and must only change through
// Acquire and Release.
type TimeSlot struct {
	SlotID         string   `json:"slot_id" bson:"slot_id"`
	StartTime      string   `json:"start_time" bson:"start_time"`
	EndTime        string   `json:"end_time" bson:"end_time"`
	MaxBookings    int      `json:"max_bookings" bson:"max_bookings"`
	BookedCount    int      `json:"booked_count" bson:"booked_count"`
	IsBooked       bool     `json:"is_booked" bson:"is_booked"`
	Room           string   `json:"room,omitempty" bson:"room,omitempty"`
	AppointmentIDs []string `json:"appointment_ids" bson:"appointment_ids"`
}

// Acquire reserves one unit of capacity for appointmentID. Fails fast with
// ErrSlotCapacityReached when the slot is full; there is no queueing.
func (t *TimeSlot) Acquire(appointmentID string) error {
	if t.BookedCount >= t.MaxBookings {
		return ErrSlotCapacityReached
	}
	t.AppointmentIDs = append(t.AppointmentIDs, appointmentID)
	t.recompute()
	return nil
}

// Release frees the capacity held by appointmentID. Releasing an
// appointment the slot does not hold is a no-op and returns false.
func (t *TimeSlot) Release(appointmentID string) bool {
	for i, id := range t.AppointmentIDs {
		if id == appointmentID {
			t.AppointmentIDs = append(t.AppointmentIDs[:i], t.AppointmentIDs[i+1:]...)
			t.recompute()
			return true
		}
	}
	return false
}

// Holds reports whether the slot currently carries appointmentID.
func (t *TimeSlot) Holds(appointmentID string) bool {
	for _, id := range t.AppointmentIDs {
		if id == appointmentID {
			return true
		}
	}
	return false
}

// Available reports whether at least one booking unit remains.
func (t *TimeSlot) Available() bool {
	return t.BookedCount < t.MaxBookings
}

func (t *TimeSlot) recompute() {
	t.BookedCount = len(t.AppointmentIDs)
	t.IsBooked = t.BookedCount >= t.MaxBookings
}

// StartHour returns the slot's start hour, or -1 when unparseable.
func (t *TimeSlot) StartHour() int {
	parsed, err := time.Parse(TimeLayout, t.StartTime)
	if err != nil {
		return -1
	}
	return parsed.Hour()
}

// Schedule is one doctor's bookable day. Date uses DateLayout.
type Schedule struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID  string     `json:"doctor_id" bson:"doctor_id"`
	Date      string     `json:"date" bson:"date"`
	TimeSlots []TimeSlot `json:"time_slots" bson:"time_slots"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`

	slotIdx map[string]int
}

// Slot returns the slot with the given local id. Lookup is O(1) after the
// first call on a decoded schedule.
func (s *Schedule) Slot(slotID string) (*TimeSlot, bool) {
	if s.slotIdx == nil || len(s.slotIdx) != len(s.TimeSlots) {
		s.slotIdx = make(map[string]int, len(s.TimeSlots))
		for i := range s.TimeSlots {
			s.slotIdx[s.TimeSlots[i].SlotID] = i
		}
	}
	i, ok := s.slotIdx[slotID]
	if !ok {
		return nil, false
	}
	return &s.TimeSlots[i], true
}

// SlotHolding locates the slot that carries appointmentID. Membership, not
// time equality, identifies the slot: two slots may share identical times.
func (s *Schedule) SlotHolding(appointmentID string) (*TimeSlot, bool) {
	for i := range s.TimeSlots {
		if s.TimeSlots[i].Holds(appointmentID) {
			return &s.TimeSlots[i], true
		}
	}
	return nil, false
}

// SlotRef is the opaque compound identifier handed to external callers.
type SlotRef struct {
	ScheduleID string
	SlotID     string
}

const slotRefSeparator = "_"

func (r SlotRef) String() string {
	return r.ScheduleID + slotRefSeparator + r.SlotID
}

// ParseSlotRef splits an opaque slot reference back into its parts.
func ParseSlotRef(ref string) (SlotRef, error) {
	parts := strings.SplitN(ref, slotRefSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return SlotRef{}, fmt.Errorf("%w: %q", ErrInvalidSlotRef, ref)
	}
	return SlotRef{ScheduleID: parts[0], SlotID: parts[1]}, nil
}

// CombineDateTime builds a wall-clock instant from a schedule date and a
// slot time in the given location.
func CombineDateTime(date, hm string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+hm, loc)
}
