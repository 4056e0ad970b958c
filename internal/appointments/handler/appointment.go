package handler

import (
	"encoding/json"
	"net/http"

	"medibook/internal/appointments/service"
	"medibook/internal/appointments/validator"
	apperrors "medibook/pkg/errors"
	pkghttp "medibook/pkg/http"
	"medibook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// ActorHeader carries the authenticated caller identity, injected by the
// gateway in front of this service.
const ActorHeader = "X-Actor-ID"

type AppointmentHandler struct {
	service   *service.AppointmentService
	validator *validator.Validator
	log       *logger.Logger
}

func NewAppointmentHandler(svc *service.AppointmentService, v *validator.Validator, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: svc, validator: v, log: log}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments", h.ListMine)
	router.GET("/api/v1/appointments/:code", h.Get)
	router.POST("/api/v1/appointments/:code/cancel", h.Cancel)
	router.POST("/api/v1/appointments/:code/reschedule", h.Reschedule)
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req service.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("request body must be valid JSON"))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.writeError(w, err)
		return
	}

	appointment, err := h.service.Book(r.Context(), patientID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := pkghttp.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	appointments, err := h.service.ListMine(r.Context(), patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, appointments)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	appointment, err := h.service.Get(r.Context(), patientID, ps.ByName("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, appointment)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	req := service.CancelRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, apperrors.InvalidInput("request body must be valid JSON"))
			return
		}
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.writeError(w, err)
		return
	}

	appointment, err := h.service.Cancel(r.Context(), patientID, ps.ByName("code"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, appointment)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patientID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req service.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("request body must be valid JSON"))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.writeError(w, err)
		return
	}

	appointment, err := h.service.Reschedule(r.Context(), patientID, ps.ByName("code"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, appointment)
}

// actor extracts the authenticated caller. A missing header fails the
// request before any work is done.
func (h *AppointmentHandler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	patientID := r.Header.Get(ActorHeader)
	if patientID == "" {
		h.writeError(w, apperrors.AuthenticationRequired())
		return "", false
	}
	return patientID, true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := pkghttp.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func (h *AppointmentHandler) writeSuccess(w http.ResponseWriter, data any) {
	if err := pkghttp.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}
