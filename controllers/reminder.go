// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ReminderTemplateController manages the message templates used for reminders.
type ReminderTemplateController struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewReminderTemplateController(db *gorm.DB, log zerolog.Logger) *ReminderTemplateController {
	return &ReminderTemplateController{db: db, log: log}
}

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=birthday anniversary appointment waitlist"`
	Message string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Type     *string `json:"type" binding:"omitempty,oneof=birthday anniversary appointment waitlist"`
	Message  *string `json:"message" binding:"omitempty,min=1"`
	IsActive *bool   `json:"isActive"`
}

// Create adds a template. A salon has at most one template per type.
func (ctl *ReminderTemplateController) Create(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	db := ctl.db.WithContext(c.Request.Context())
	if taken, err := templateTypeTaken(db, salon, input.Type); err != nil {
		ctl.log.Error().Err(err).Msg("template lookup failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	} else if taken {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	}

	template := models.ReminderTemplate{
		SalonID:  salon,
		Type:     input.Type,
		Message:  input.Message,
		IsActive: true,
	}
	if err := db.Create(&template).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to create template")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (ctl *ReminderTemplateController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ?", salon).
		Order("type ASC").
		Find(&templates).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to list templates")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

func (ctl *ReminderTemplateController) Get(c *gin.Context) {
	template, ok := ctl.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, template)
}

func (ctl *ReminderTemplateController) Update(c *gin.Context) {
	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, ok := ctl.load(c)
	if !ok {
		return
	}
	db := ctl.db.WithContext(c.Request.Context())

	// If changing type, check for conflict
	if input.Type != nil && *input.Type != template.Type {
		taken, err := templateTypeTaken(db, template.SalonID, *input.Type)
		if err != nil {
			ctl.log.Error().Err(err).Msg("template lookup failed")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if taken {
			utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
			return
		}
		template.Type = *input.Type
	}
	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := db.Save(template).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to update template")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// Delete removes a template; reminders of that type fall back to the built-in text.
func (ctl *ReminderTemplateController) Delete(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "template")
	if !ok {
		return
	}

	result := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		ctl.log.Error().Err(result.Error).Msg("failed to delete template")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

func (ctl *ReminderTemplateController) load(c *gin.Context) (*models.ReminderTemplate, bool) {
	salon, ok := salonID(c)
	if !ok {
		return nil, false
	}
	id, ok := pathID(c, "template")
	if !ok {
		return nil, false
	}

	var template models.ReminderTemplate
	if err := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			ctl.log.Error().Err(err).Msg("failed to load template")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &template, true
}

func templateTypeTaken(db *gorm.DB, salonID uuid.UUID, kind string) (bool, error) {
	var count int64
	if err := db.Model(&models.ReminderTemplate{}).
		Where("salon_id = ? AND type = ?", salonID, kind).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
