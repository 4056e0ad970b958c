package service

import (
	"strings"
	"time"

	"medibook/internal/appointments/repository"
	billingrepo "medibook/internal/billing/repository"
	doctorrepo "medibook/internal/doctors/repository"
	"medibook/internal/schedules/broadcast"
	scheduleservice "medibook/internal/schedules/service"
	"medibook/pkg/config"
	"medibook/pkg/logger"

	"github.com/google/uuid"
)

// BookRequest creates a pending appointment in a slot chosen by the
// patient. ServiceID optionally names the billed consultation service.
type BookRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required"`
	SlotID    string `json:"slot_id" validate:"required"`
	ServiceID string `json:"service_id,omitempty" validate:"omitempty"`
}

// CancelRequest releases the appointment's slot and records the reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// RescheduleRequest moves an appointment to a new slot near the preferred
// date. PreferredTime accepts a clock time or a named period; Period
// narrows the same way and at most one of the two should be set.
type RescheduleRequest struct {
	PreferredDate   string `json:"preferred_date" validate:"required,bookdate"`
	PreferredTime   string `json:"preferred_time,omitempty" validate:"omitempty,preferredtime"`
	PreferredPeriod string `json:"preferred_period,omitempty" validate:"omitempty,dayperiod"`
}

// AppointmentService owns the booking lifecycle. Every state change runs
// inside one transaction; slot-update broadcasts are registered as
// post-commit hooks so external views never see uncommitted capacity.
type AppointmentService struct {
	cfg          *config.Config
	appointments repository.AppointmentRepository
	bills        billingrepo.BillRepository
	doctors      doctorrepo.DoctorRepository
	services     doctorrepo.MedicalServiceRepository
	slots        *scheduleservice.SlotStore
	finder       *scheduleservice.SlotFinder
	broadcaster  broadcast.SlotBroadcaster
	log          *logger.Logger

	// now is replaceable so lead-time checks are testable.
	now func() time.Time
	loc *time.Location
}

func NewAppointmentService(
	cfg *config.Config,
	appointments repository.AppointmentRepository,
	bills billingrepo.BillRepository,
	doctors doctorrepo.DoctorRepository,
	services doctorrepo.MedicalServiceRepository,
	slots *scheduleservice.SlotStore,
	finder *scheduleservice.SlotFinder,
	broadcaster broadcast.SlotBroadcaster,
) *AppointmentService {
	return &AppointmentService{
		cfg:          cfg,
		appointments: appointments,
		bills:        bills,
		doctors:      doctors,
		services:     services,
		slots:        slots,
		finder:       finder,
		broadcaster:  broadcaster,
		log:          cfg.Log,
		now:          time.Now,
		loc:          time.UTC,
	}
}

const bookingCodePrefix = "APT-"

// newBookingCode builds a short patient-facing code. Uniqueness is
// enforced by the booking_code index; collisions surface as a retryable
// transaction error.
func newBookingCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return bookingCodePrefix + strings.ToUpper(raw[:8])
}
