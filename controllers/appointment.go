// controllers/appointment.go
package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AppointmentController struct {
	appointments *services.AppointmentService
	log          zerolog.Logger
}

func NewAppointmentController(appointments *services.AppointmentService, log zerolog.Logger) *AppointmentController {
	return &AppointmentController{appointments: appointments, log: log}
}

// CreateAppointmentInput defines the expected JSON structure for booking
type CreateAppointmentInput struct {
	CustomerID     *uuid.UUID `json:"customerId"`
	StaffID        *uuid.UUID `json:"staffId"`
	ServiceID      *uuid.UUID `json:"serviceId"`
	LocationID     *uuid.UUID `json:"locationId"`
	ScheduledStart time.Time  `json:"scheduledStart" binding:"required"`
	ScheduledEnd   *time.Time `json:"scheduledEnd"`
	Notes          string     `json:"notes"`
}

type CancelAppointmentInput struct {
	Reason string `json:"reason"`
}

// Create books a new appointment
func (ctl *AppointmentController) Create(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appt, err := ctl.appointments.Create(c.Request.Context(), salon, services.CreateAppointmentParams{
		CustomerID:     input.CustomerID,
		StaffID:        input.StaffID,
		ServiceID:      input.ServiceID,
		LocationID:     input.LocationID,
		ScheduledStart: input.ScheduledStart,
		ScheduledEnd:   input.ScheduledEnd,
		Notes:          input.Notes,
	})
	if err != nil {
		respondServiceError(c, ctl.log, err, "Appointment")
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// List returns appointments, optionally filtered by day, status, staff, customer or location
func (ctl *AppointmentController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var filter services.AppointmentFilter
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Day = &day
	}
	if raw := strings.ToUpper(c.Query("status")); raw != "" {
		status := models.AppointmentStatus(raw)
		if !status.Valid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = status
	}
	for param, dst := range map[string]**uuid.UUID{
		"staffId":    &filter.StaffID,
		"customerId": &filter.CustomerID,
		"locationId": &filter.LocationID,
	} {
		id, err := optionalUUID(c.Query(param))
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+param)
			return
		}
		*dst = id
	}

	appts, err := ctl.appointments.List(c.Request.Context(), salon, filter)
	if err != nil {
		respondServiceError(c, ctl.log, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (ctl *AppointmentController) Get(c *gin.Context) {
	ctl.withAppointment(c, ctl.appointments.Get)
}

func (ctl *AppointmentController) CheckIn(c *gin.Context) {
	ctl.withAppointment(c, ctl.appointments.CheckIn)
}

func (ctl *AppointmentController) Complete(c *gin.Context) {
	ctl.withAppointment(c, ctl.appointments.Complete)
}

func (ctl *AppointmentController) NoShow(c *gin.Context) {
	ctl.withAppointment(c, ctl.appointments.MarkNoShow)
}

// Cancel accepts an optional { "reason": "..." } body.
func (ctl *AppointmentController) Cancel(c *gin.Context) {
	var input CancelAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	ctl.withAppointment(c, func(ctx context.Context, salon, id uuid.UUID) (*models.Appointment, error) {
		return ctl.appointments.Cancel(ctx, salon, id, input.Reason)
	})
}

func (ctl *AppointmentController) withAppointment(c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID) (*models.Appointment, error)) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	appt, err := op(c.Request.Context(), salon, id)
	if err != nil {
		respondServiceError(c, ctl.log, err, "Appointment")
		return
	}
	c.JSON(http.StatusOK, appt)
}
