package model

import "time"

// Doctor is the directory record consulted at booking time. Hospital and
// specialty names are denormalized here so booking responses need no
// extra lookups.
type Doctor struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string    `json:"name" bson:"name"`
	HospitalID      string    `json:"hospital_id" bson:"hospital_id"`
	HospitalName    string    `json:"hospital_name" bson:"hospital_name"`
	SpecialtyID     string    `json:"specialty_id" bson:"specialty_id"`
	SpecialtyName   string    `json:"specialty_name" bson:"specialty_name"`
	ConsultationFee int64     `json:"consultation_fee" bson:"consultation_fee"`
	IsActive        bool      `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// Medical service types used by the fee fallback chain.
const (
	ServiceTypeExamination = "examination"
	ServiceTypeProcedure   = "procedure"
	ServiceTypeTest        = "test"
)

// MedicalService is an additional billable service. DoctorID is empty for
// specialty-wide services.
type MedicalService struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	DoctorID    string    `json:"doctor_id,omitempty" bson:"doctor_id,omitempty"`
	SpecialtyID string    `json:"specialty_id" bson:"specialty_id"`
	Type        string    `json:"type" bson:"type"`
	Price       int64     `json:"price" bson:"price"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
