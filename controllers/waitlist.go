// controllers/waitlist.go
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type WaitlistController struct {
	waitlist *services.WaitlistService
	log      zerolog.Logger
}

func NewWaitlistController(waitlist *services.WaitlistService, log zerolog.Logger) *WaitlistController {
	return &WaitlistController{waitlist: waitlist, log: log}
}

// JoinWaitlistInput defines the expected JSON structure for a walk-in
type JoinWaitlistInput struct {
	LocationID uuid.UUID  `json:"locationId" binding:"required"`
	CustomerID *uuid.UUID `json:"customerId"`
	ServiceID  *uuid.UUID `json:"serviceId"`
	GuestName  string     `json:"guestName"`
	GuestPhone string     `json:"guestPhone"`
	PartySize  int        `json:"partySize" binding:"omitempty,min=1"`
	Notes      string     `json:"notes"`
}

// UpdateWaitlistInput is a partial update; omitted fields are unchanged
type UpdateWaitlistInput struct {
	Notes         *string                `json:"notes"`
	PartySize     *int                   `json:"partySize"`
	ServiceID     *uuid.UUID             `json:"serviceId"`
	EstimatedWait *int                   `json:"estimatedWait"`
	Status        *models.WaitlistStatus `json:"status"`
	Position      *int                   `json:"position"`
}

func (ctl *WaitlistController) Join(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var input JoinWaitlistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.GuestPhone != "" && !utils.ValidatePhone(input.GuestPhone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	entry, err := ctl.waitlist.Join(c.Request.Context(), salon, services.JoinWaitlistParams{
		LocationID: input.LocationID,
		CustomerID: input.CustomerID,
		ServiceID:  input.ServiceID,
		GuestName:  input.GuestName,
		GuestPhone: input.GuestPhone,
		PartySize:  input.PartySize,
		Notes:      input.Notes,
	})
	if err != nil {
		respondServiceError(c, ctl.log, err, "Waitlist entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// List returns the active queue, or every entry with all=true
func (ctl *WaitlistController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	location, err := optionalUUID(c.Query("locationId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid locationId")
		return
	}
	all := false
	if raw := c.Query("all"); raw != "" {
		if all, err = strconv.ParseBool(raw); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid value for all")
			return
		}
	}

	entries, err := ctl.waitlist.List(c.Request.Context(), salon, location, all)
	if err != nil {
		respondServiceError(c, ctl.log, err, "Waitlist entry")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (ctl *WaitlistController) Get(c *gin.Context) {
	ctl.withEntry(c, ctl.waitlist.Get)
}

func (ctl *WaitlistController) Notify(c *gin.Context) {
	ctl.withEntry(c, ctl.waitlist.Notify)
}

func (ctl *WaitlistController) Seat(c *gin.Context) {
	ctl.withEntry(c, ctl.waitlist.Seat)
}

// Remove marks the entry LEFT; the row is kept for history.
func (ctl *WaitlistController) Remove(c *gin.Context) {
	ctl.withEntry(c, ctl.waitlist.Remove)
}

func (ctl *WaitlistController) Update(c *gin.Context) {
	var input UpdateWaitlistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	ctl.withEntry(c, func(ctx context.Context, salon, id uuid.UUID) (*models.WaitlistEntry, error) {
		return ctl.waitlist.Update(ctx, salon, id, services.UpdateWaitlistParams{
			Notes:         input.Notes,
			PartySize:     input.PartySize,
			ServiceID:     input.ServiceID,
			EstimatedWait: input.EstimatedWait,
			Status:        input.Status,
			Position:      input.Position,
		})
	})
}

func (ctl *WaitlistController) withEntry(c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID) (*models.WaitlistEntry, error)) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "waitlist entry")
	if !ok {
		return
	}
	entry, err := op(c.Request.Context(), salon, id)
	if err != nil {
		respondServiceError(c, ctl.log, err, "Waitlist entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}
