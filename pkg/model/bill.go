package model

import "time"

// Sub-bill payment statuses.
const (
	BillStatusPending   = "pending"
	BillStatusPaid      = "paid"
	BillStatusCancelled = "cancelled"
	BillStatusRefunded  = "refunded"
	BillStatusFailed    = "failed"
)

// Overall bill states. Forward-only: unpaid -> partial -> paid. Refunds are
// a sub-bill status, never a reverse overall transition.
const (
	OverallStatusUnpaid  = "unpaid"
	OverallStatusPartial = "partial"
	OverallStatusPaid    = "paid"
)

// Bill components.
const (
	ComponentConsultation    = "consultation"
	ComponentMedication      = "medication"
	ComponentHospitalization = "hospitalization"
)

// Payment methods. Online methods leave the visit awaiting an in-person
// completion step; offline methods settle it on the spot.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodMomo   = "momo"
	PaymentMethodPayPal = "paypal"
	PaymentMethodCard   = "card"
)

func IsOnlineMethod(method string) bool {
	switch method {
	case PaymentMethodMomo, PaymentMethodPayPal, PaymentMethodCard:
		return true
	}
	return false
}

// PrescriptionPayment tracks one prescription billed inside the medication
// sub-bill. Prescriptions are payable independently of each other.
type PrescriptionPayment struct {
	PrescriptionID string     `json:"prescription_id" bson:"prescription_id"`
	Amount         int64      `json:"amount" bson:"amount"`
	Status         string     `json:"status" bson:"status"`
	PaymentMethod  string     `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty" bson:"payment_date,omitempty"`
	TransactionID  string     `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
}

// SubBill is one independently payable component of a bill.
type SubBill struct {
	Amount        int64      `json:"amount" bson:"amount"`
	Status        string     `json:"status" bson:"status"`
	PaymentMethod string     `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty" bson:"payment_date,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`

	// Prescriptions is populated on the medication sub-bill only.
	Prescriptions []PrescriptionPayment `json:"prescriptions,omitempty" bson:"prescriptions,omitempty"`
}

func (sb *SubBill) paidAmount() int64 {
	if sb.Status == BillStatusPaid {
		return sb.Amount
	}
	var paid int64
	for _, p := range sb.Prescriptions {
		if p.Status == BillStatusPaid {
			paid += p.Amount
		}
	}
	return paid
}

func (sb *SubBill) paidMethods() []string {
	var methods []string
	if sb.Status == BillStatusPaid && sb.PaymentMethod != "" {
		methods = append(methods, sb.PaymentMethod)
	}
	for _, p := range sb.Prescriptions {
		if p.Status == BillStatusPaid && p.PaymentMethod != "" {
			methods = append(methods, p.PaymentMethod)
		}
	}
	return methods
}

// Bill is the 1:1 billing aggregate for an appointment. TotalAmount,
// PaidAmount, RemainingAmount and OverallStatus are derived; Recompute is
// the only writer.
type Bill struct {
	ID            string `json:"id,omitempty" bson:"_id,omitempty"`
	AppointmentID string `json:"appointment_id" bson:"appointment_id"`
	BookingCode   string `json:"booking_code" bson:"booking_code"`
	PatientID     string `json:"patient_id" bson:"patient_id"`

	Consultation    SubBill `json:"consultation" bson:"consultation"`
	Medication      SubBill `json:"medication" bson:"medication"`
	Hospitalization SubBill `json:"hospitalization" bson:"hospitalization"`

	TotalAmount     int64  `json:"total_amount" bson:"total_amount"`
	PaidAmount      int64  `json:"paid_amount" bson:"paid_amount"`
	RemainingAmount int64  `json:"remaining_amount" bson:"remaining_amount"`
	OverallStatus   string `json:"overall_status" bson:"overall_status"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Recompute rebuilds every derived field from the sub-bills. It is called
// immediately before each persisted write; incremental updates are never
// applied, so the derived fields cannot drift.
func (b *Bill) Recompute() {
	b.TotalAmount = b.Consultation.Amount + b.Medication.Amount + b.Hospitalization.Amount
	b.PaidAmount = b.Consultation.paidAmount() + b.Medication.paidAmount() + b.Hospitalization.paidAmount()
	b.RemainingAmount = b.TotalAmount - b.PaidAmount

	switch {
	case b.TotalAmount > 0 && b.PaidAmount == b.TotalAmount:
		b.OverallStatus = OverallStatusPaid
	case b.PaidAmount > 0:
		b.OverallStatus = OverallStatusPartial
	default:
		b.OverallStatus = OverallStatusUnpaid
	}
}

// PaidMethods lists the payment methods of every contribution currently
// counted into PaidAmount.
func (b *Bill) PaidMethods() []string {
	var methods []string
	methods = append(methods, b.Consultation.paidMethods()...)
	methods = append(methods, b.Medication.paidMethods()...)
	methods = append(methods, b.Hospitalization.paidMethods()...)
	return methods
}

// AnyOnlinePaid reports whether any contributing payment used an online
// gateway method.
func (b *Bill) AnyOnlinePaid() bool {
	for _, m := range b.PaidMethods() {
		if IsOnlineMethod(m) {
			return true
		}
	}
	return false
}

// SubBillFor returns the sub-bill for a component name.
func (b *Bill) SubBillFor(component string) *SubBill {
	switch component {
	case ComponentConsultation:
		return &b.Consultation
	case ComponentMedication:
		return &b.Medication
	case ComponentHospitalization:
		return &b.Hospitalization
	}
	return nil
}

// BillPayment is an immutable audit record of one payment attempt against
// one sub-bill. Created by the payment-gateway collaborator, referenced by
// but not owned by the bill.
type BillPayment struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	BillID         string    `json:"bill_id" bson:"bill_id"`
	BookingCode    string    `json:"booking_code" bson:"booking_code"`
	Component      string    `json:"component" bson:"component"`
	PrescriptionID string    `json:"prescription_id,omitempty" bson:"prescription_id,omitempty"`
	Amount         int64     `json:"amount" bson:"amount"`
	Method         string    `json:"method" bson:"method"`
	Status         string    `json:"status" bson:"status"`
	TransactionID  string    `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
