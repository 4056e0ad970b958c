package service

import (
	"context"
	"errors"
	"time"

	appointmentrepo "medibook/internal/appointments/repository"
	billingerrors "medibook/internal/billing/errors"
	"medibook/internal/billing/repository"
	mongotx "medibook/pkg/db/mongo"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentRequest settles one sub-bill, or one prescription inside the
// medication sub-bill when PrescriptionID is set.
type PaymentRequest struct {
	Component      string `json:"component" validate:"required,oneof=consultation medication hospitalization"`
	PrescriptionID string `json:"prescription_id,omitempty" validate:"omitempty"`
	Method         string `json:"method" validate:"required,oneof=cash momo paypal card"`
	TransactionID  string `json:"transaction_id,omitempty" validate:"omitempty,max=128"`
}

// ChargeRequest adds an amount to the medication or hospitalization
// sub-bill. With PrescriptionID it opens an independently payable
// prescription line.
type ChargeRequest struct {
	Component      string `json:"component" validate:"required,oneof=medication hospitalization"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	PrescriptionID string `json:"prescription_id,omitempty" validate:"omitempty"`
}

// BillView is the read model returned to patients: the aggregate plus
// its audit trail of payment attempts.
type BillView struct {
	Bill     *model.Bill          `json:"bill"`
	Payments []*model.BillPayment `json:"payments"`
}

// BillingService owns the bill aggregate. Derived bill state is always
// recomputed from the sub-bills before a write, and appointment status
// follows the bill's first transition to fully paid.
type BillingService struct {
	bills        repository.BillRepository
	appointments appointmentrepo.AppointmentRepository
	log          *logger.Logger
	now          func() time.Time
}

func NewBillingService(bills repository.BillRepository, appointments appointmentrepo.AppointmentRepository, log *logger.Logger) *BillingService {
	return &BillingService{
		bills:        bills,
		appointments: appointments,
		log:          log,
		now:          time.Now,
	}
}

// RecordPayment marks one sub-bill or prescription paid, appends the
// audit record and, when the bill becomes fully paid, advances the
// appointment: an all-offline bill completes the visit, any online
// payment only confirms a pending one.
func (s *BillingService) RecordPayment(ctx context.Context, patientID, bookingCode string, req *PaymentRequest) (*model.Bill, error) {
	var bill *model.Bill
	err := s.bills.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext, uow *mongotx.UnitOfWork) error {
		var err error
		bill, err = s.findPatientBill(sessCtx, patientID, bookingCode)
		if err != nil {
			return err
		}

		wasPaid := bill.OverallStatus == model.OverallStatusPaid

		amount, err := s.applyPayment(bill, req)
		if err != nil {
			return err
		}
		bill.Recompute()

		if err := s.bills.Replace(sessCtx, bill); err != nil {
			return err
		}

		payment := &model.BillPayment{
			BillID:         bill.ID,
			BookingCode:    bill.BookingCode,
			Component:      req.Component,
			PrescriptionID: req.PrescriptionID,
			Amount:         amount,
			Method:         req.Method,
			Status:         model.BillStatusPaid,
			TransactionID:  req.TransactionID,
		}
		if err := s.bills.InsertPayment(sessCtx, payment); err != nil {
			return err
		}

		if !wasPaid && bill.OverallStatus == model.OverallStatusPaid {
			return s.advanceAppointment(sessCtx, bill)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		"booking_code", bill.BookingCode,
		"component", req.Component,
		"method", req.Method,
		"overall_status", bill.OverallStatus)
	return bill, nil
}

// applyPayment mutates the targeted sub-bill or prescription and returns
// the amount settled.
func (s *BillingService) applyPayment(bill *model.Bill, req *PaymentRequest) (int64, error) {
	sub := bill.SubBillFor(req.Component)
	if sub == nil {
		return 0, apperrors.InvalidInput("unknown bill component")
	}

	paidAt := s.now().UTC()

	if req.PrescriptionID != "" {
		if req.Component != model.ComponentMedication {
			return 0, apperrors.InvalidInput("prescription payments apply to the medication component only")
		}
		for i := range sub.Prescriptions {
			p := &sub.Prescriptions[i]
			if p.PrescriptionID != req.PrescriptionID {
				continue
			}
			if p.Status == model.BillStatusPaid {
				return 0, apperrors.Conflict("prescription is already paid")
			}
			p.Status = model.BillStatusPaid
			p.PaymentMethod = req.Method
			p.PaymentDate = &paidAt
			p.TransactionID = req.TransactionID
			return p.Amount, nil
		}
		return 0, apperrors.NotFoundWithID("prescription", req.PrescriptionID)
	}

	if sub.Status == model.BillStatusPaid {
		return 0, apperrors.Conflict("bill component is already paid")
	}
	if sub.Status == model.BillStatusCancelled {
		return 0, apperrors.Conflict("bill component is cancelled")
	}
	if sub.Amount == 0 {
		return 0, apperrors.InvalidInput("bill component has no outstanding amount")
	}

	sub.Status = model.BillStatusPaid
	sub.PaymentMethod = req.Method
	sub.PaymentDate = &paidAt
	sub.TransactionID = req.TransactionID
	return sub.Amount, nil
}

// advanceAppointment applies the paid-bill status rule inside the
// payment's transaction.
func (s *BillingService) advanceAppointment(ctx context.Context, bill *model.Bill) error {
	appointment, err := s.appointments.FindByID(ctx, bill.AppointmentID)
	if err != nil {
		return err
	}

	if bill.AnyOnlinePaid() {
		if appointment.Status == model.AppointmentStatusPending {
			return s.appointments.UpdateStatus(ctx, appointment.ID, model.AppointmentStatusConfirmed)
		}
		return nil
	}

	switch appointment.Status {
	case model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusRescheduled:
		return s.appointments.UpdateStatus(ctx, appointment.ID, model.AppointmentStatusCompleted)
	}
	return nil
}

// AddCharge grows the medication or hospitalization sub-bill and keeps
// the appointment's fee summary in step.
func (s *BillingService) AddCharge(ctx context.Context, bookingCode string, req *ChargeRequest) (*model.Bill, error) {
	var bill *model.Bill
	err := s.bills.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext, uow *mongotx.UnitOfWork) error {
		var err error
		bill, err = s.bills.FindByBookingCode(sessCtx, bookingCode)
		if err != nil {
			if errors.Is(err, billingerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("bill", bookingCode)
			}
			return err
		}

		sub := bill.SubBillFor(req.Component)
		if sub == nil || req.Component == model.ComponentConsultation {
			return apperrors.InvalidInput("charges apply to medication or hospitalization only")
		}
		if sub.Status != model.BillStatusPending {
			return apperrors.Conflict("bill component no longer accepts charges")
		}

		if req.PrescriptionID != "" {
			if req.Component != model.ComponentMedication {
				return apperrors.InvalidInput("prescriptions belong to the medication component")
			}
			for _, p := range sub.Prescriptions {
				if p.PrescriptionID == req.PrescriptionID {
					return apperrors.Conflict("prescription already charged")
				}
			}
			sub.Prescriptions = append(sub.Prescriptions, model.PrescriptionPayment{
				PrescriptionID: req.PrescriptionID,
				Amount:         req.Amount,
				Status:         model.BillStatusPending,
			})
		}
		sub.Amount += req.Amount
		bill.Recompute()

		if err := s.bills.Replace(sessCtx, bill); err != nil {
			return err
		}

		return s.growAppointmentFees(sessCtx, bill.AppointmentID, req.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("charge added",
		"booking_code", bill.BookingCode,
		"component", req.Component,
		"amount", req.Amount)
	return bill, nil
}

func (s *BillingService) growAppointmentFees(ctx context.Context, appointmentID string, amount int64) error {
	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	appointment.AdditionalFees += amount
	appointment.TotalAmount = appointment.ConsultationFee + appointment.AdditionalFees - appointment.Discount
	return s.appointments.Replace(ctx, appointment)
}

// GetBill returns the bill and its payment audit trail, scoped to the
// owning patient.
func (s *BillingService) GetBill(ctx context.Context, patientID, bookingCode string) (*BillView, error) {
	bill, err := s.findPatientBill(ctx, patientID, bookingCode)
	if err != nil {
		return nil, err
	}

	payments, err := s.bills.FindPaymentsByBookingCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*model.BillPayment{}
	}

	return &BillView{Bill: bill, Payments: payments}, nil
}

// findPatientBill hides other patients' bills behind a not-found.
func (s *BillingService) findPatientBill(ctx context.Context, patientID, bookingCode string) (*model.Bill, error) {
	bill, err := s.bills.FindByBookingCode(ctx, bookingCode)
	if err != nil {
		if errors.Is(err, billingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("bill", bookingCode)
		}
		return nil, err
	}
	if bill.PatientID != patientID {
		return nil, apperrors.NotFoundWithID("bill", bookingCode)
	}
	return bill, nil
}
