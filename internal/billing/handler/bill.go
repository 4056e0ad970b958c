package handler

import (
	"encoding/json"
	"net/http"

	"medibook/internal/billing/service"
	"medibook/internal/billing/validator"
	apperrors "medibook/pkg/errors"
	pkghttp "medibook/pkg/http"
	"medibook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const ActorHeader = "X-Actor-ID"

type BillHandler struct {
	service   *service.BillingService
	validator *validator.Validator
	log       *logger.Logger
}

func NewBillHandler(svc *service.BillingService, v *validator.Validator, log *logger.Logger) *BillHandler {
	return &BillHandler{service: svc, validator: v, log: log}
}

func (h *BillHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bills/:code", h.Get)
	router.POST("/api/v1/bills/:code/payments", h.RecordPayment)
	router.POST("/api/v1/bills/:code/charges", h.AddCharge)
}

func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetBill(r.Context(), patientID, ps.ByName("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, view)
}

func (h *BillHandler) RecordPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req service.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("request body must be valid JSON"))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.writeError(w, err)
		return
	}

	bill, err := h.service.RecordPayment(r.Context(), patientID, ps.ByName("code"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, bill)
}

// AddCharge is a staff operation; the actor is recorded for audit via
// request logging but the bill is not patient-scoped here.
func (h *BillHandler) AddCharge(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	var req service.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("request body must be valid JSON"))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.writeError(w, err)
		return
	}

	bill, err := h.service.AddCharge(r.Context(), ps.ByName("code"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, bill)
}

func (h *BillHandler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := r.Header.Get(ActorHeader)
	if actorID == "" {
		h.writeError(w, apperrors.AuthenticationRequired())
		return "", false
	}
	return actorID, true
}

func (h *BillHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := pkghttp.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func (h *BillHandler) writeSuccess(w http.ResponseWriter, data any) {
	if err := pkghttp.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}
