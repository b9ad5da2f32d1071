package controllers

import (
	"errors"
	"net/http"
	"strings"

	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// respondServiceError maps service errors onto HTTP status codes. Anything
// unexpected is logged and answered with a static message.
func respondServiceError(c *gin.Context, log zerolog.Logger, err error, resource string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, resource+" not found")
	case errors.Is(err, services.ErrInvalidInput):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// salonID reads the authenticated salon or aborts with 401.
func salonID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.SalonIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
	}
	return id, ok
}

// pathID reads the :id path parameter or aborts with 400.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
	}
	return id, ok
}

// optionalUUID parses an optional query or body value.
func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
