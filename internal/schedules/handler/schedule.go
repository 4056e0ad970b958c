package handler

import (
	"net/http"
	"time"

	"medibook/internal/schedules/service"
	apperrors "medibook/pkg/errors"
	pkghttp "medibook/pkg/http"
	"medibook/pkg/logger"
	"medibook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const defaultUpcomingDays = 7

type ScheduleHandler struct {
	availability *service.AvailabilityService
	log          *logger.Logger
}

func NewScheduleHandler(availability *service.AvailabilityService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{availability: availability, log: log}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/schedules/availability", h.GetAvailability)
}

// GetAvailability serves slot availability for one doctor. With a date
// query it returns that single day; without one it returns the next week
// of schedules starting today.
func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doctorID := r.URL.Query().Get("doctor_id")
	if doctorID == "" {
		h.writeError(w, apperrors.InvalidInput("doctor_id query parameter is required"))
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			h.writeError(w, apperrors.InvalidInput("date must use YYYY-MM-DD format"))
			return
		}

		day, err := h.availability.ForDay(r.Context(), doctorID, date)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeSuccess(w, day)
		return
	}

	today := time.Now().UTC().Format(model.DateLayout)
	days, err := h.availability.Upcoming(r.Context(), doctorID, today, defaultUpcomingDays)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, days)
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := pkghttp.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func (h *ScheduleHandler) writeSuccess(w http.ResponseWriter, data any) {
	if err := pkghttp.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}
