package controllers

import (
	"errors"
	"net/http"
	"strings"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type LocationController struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewLocationController(db *gorm.DB, log zerolog.Logger) *LocationController {
	return &LocationController{db: db, log: log}
}

type LocationInput struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

func (ctl *LocationController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var locations []models.Location
	if err := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ?", salon).
		Order("created_at ASC").
		Find(&locations).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to list locations")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve locations")
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (ctl *LocationController) Create(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var input LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Location name is required")
		return
	}

	location := models.Location{SalonID: salon, IsActive: true}
	if !applyLocation(c, &location, input) {
		return
	}
	if err := ctl.db.WithContext(c.Request.Context()).Create(&location).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to create location")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create location")
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (ctl *LocationController) Update(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "location")
	if !ok {
		return
	}

	var input LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	db := ctl.db.WithContext(c.Request.Context())
	var location models.Location
	if err := db.Where("salon_id = ? AND id = ?", salon, id).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Location not found")
		} else {
			ctl.log.Error().Err(err).Msg("failed to load location")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !applyLocation(c, &location, input) {
		return
	}
	if err := db.Save(&location).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to update location")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update location")
		return
	}
	c.JSON(http.StatusOK, location)
}

func applyLocation(c *gin.Context, l *models.Location, input LocationInput) bool {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Location name is required")
			return false
		}
		l.Name = name
	}
	if input.Address != nil {
		l.Address = *input.Address
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return false
		}
		l.Phone = utils.NormalizePhone(*input.Phone)
	}
	if input.IsActive != nil {
		l.IsActive = *input.IsActive
	}
	return true
}
