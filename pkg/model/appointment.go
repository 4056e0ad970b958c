package model

import "time"

// Appointment lifecycle statuses. Appointments are never hard-deleted;
// cancelled and completed are terminal for patient-driven operations.
const (
	AppointmentStatusPending     = "pending"
	AppointmentStatusConfirmed   = "confirmed"
	AppointmentStatusRescheduled = "rescheduled"
	AppointmentStatusCompleted   = "completed"
	AppointmentStatusCancelled   = "cancelled"
	AppointmentStatusRejected    = "rejected"
	AppointmentStatusNoShow      = "no-show"
)

// RescheduleEntry is one append-only audit record of a slot move.
type RescheduleEntry struct {
	OldScheduleID string    `json:"old_schedule_id" bson:"old_schedule_id"`
	OldDate       string    `json:"old_date" bson:"old_date"`
	OldStartTime  string    `json:"old_start_time" bson:"old_start_time"`
	OldEndTime    string    `json:"old_end_time" bson:"old_end_time"`
	NewScheduleID string    `json:"new_schedule_id" bson:"new_schedule_id"`
	NewDate       string    `json:"new_date" bson:"new_date"`
	NewStartTime  string    `json:"new_start_time" bson:"new_start_time"`
	NewEndTime    string    `json:"new_end_time" bson:"new_end_time"`
	ChangedBy     string    `json:"changed_by" bson:"changed_by"`
	ChangedAt     time.Time `json:"changed_at" bson:"changed_at"`
}

type Appointment struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	BookingCode string `json:"booking_code" bson:"booking_code"`

	PatientID     string `json:"patient_id" bson:"patient_id"`
	DoctorID      string `json:"doctor_id" bson:"doctor_id"`
	DoctorName    string `json:"doctor_name" bson:"doctor_name"`
	HospitalName  string `json:"hospital_name" bson:"hospital_name"`
	SpecialtyName string `json:"specialty_name" bson:"specialty_name"`
	ServiceID     string `json:"service_id,omitempty" bson:"service_id,omitempty"`

	// Slot coordinates, denormalized for fast reads.
	ScheduleID string `json:"schedule_id" bson:"schedule_id"`
	SlotID     string `json:"slot_id" bson:"slot_id"`
	Date       string `json:"date" bson:"date"`
	StartTime  string `json:"start_time" bson:"start_time"`
	EndTime    string `json:"end_time" bson:"end_time"`

	Status      string `json:"status" bson:"status"`
	QueueNumber int    `json:"queue_number" bson:"queue_number"`

	ConsultationFee int64  `json:"consultation_fee" bson:"consultation_fee"`
	AdditionalFees  int64  `json:"additional_fees" bson:"additional_fees"`
	Discount        int64  `json:"discount" bson:"discount"`
	TotalAmount     int64  `json:"total_amount" bson:"total_amount"`
	PaymentMethod   string `json:"payment_method,omitempty" bson:"payment_method,omitempty"`

	RescheduleCount    int               `json:"reschedule_count" bson:"reschedule_count"`
	RescheduleHistory  []RescheduleEntry `json:"reschedule_history,omitempty" bson:"reschedule_history,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	IsCancelled        bool              `json:"is_cancelled" bson:"is_cancelled"`
	IsRescheduled      bool              `json:"is_rescheduled" bson:"is_rescheduled"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// StartAt combines the appointment date and slot start into an instant.
func (a *Appointment) StartAt(loc *time.Location) (time.Time, error) {
	return CombineDateTime(a.Date, a.StartTime, loc)
}

// ActiveStatuses are the statuses that occupy slot capacity and hold a
// queue number.
func ActiveStatuses() []string {
	return []string{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusRescheduled,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	}
}
