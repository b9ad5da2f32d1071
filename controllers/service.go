// controllers/service.go
package controllers

import (
	"errors"
	"net/http"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ServiceController manages the salon's service menu.
type ServiceController struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewServiceController(db *gorm.DB, log zerolog.Logger) *ServiceController {
	return &ServiceController{db: db, log: log}
}

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Duration    int     `json:"duration" binding:"min=0"` // in minutes
	Category    string  `json:"category"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Duration    *int     `json:"duration" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
	IsActive    *bool    `json:"isActive"`
}

func (ctl *ServiceController) Create(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service := models.Service{
		SalonID:     salon,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		IsActive:    true,
	}
	if err := ctl.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to create service")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create service")
		return
	}

	c.JSON(http.StatusCreated, service)
}

func (ctl *ServiceController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	q := ctl.db.WithContext(c.Request.Context()).Where("salon_id = ?", salon)
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to list services")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve services")
		return
	}

	c.JSON(http.StatusOK, services)
}

func (ctl *ServiceController) Get(c *gin.Context) {
	service, ok := ctl.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service)
}

func (ctl *ServiceController) Update(c *gin.Context) {
	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, ok := ctl.load(c)
	if !ok {
		return
	}

	if input.Name != nil {
		service.Name = *input.Name
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.Category != nil {
		service.Category = *input.Category
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := ctl.db.WithContext(c.Request.Context()).Save(service).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to update service")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service")
		return
	}

	c.JSON(http.StatusOK, service)
}

// Delete removes the service. Booked appointments keep their service_id.
func (ctl *ServiceController) Delete(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "service")
	if !ok {
		return
	}

	result := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		Delete(&models.Service{})
	if result.Error != nil {
		ctl.log.Error().Err(result.Error).Msg("failed to delete service")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete service")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

func (ctl *ServiceController) load(c *gin.Context) (*models.Service, bool) {
	salon, ok := salonID(c)
	if !ok {
		return nil, false
	}
	id, ok := pathID(c, "service")
	if !ok {
		return nil, false
	}

	var service models.Service
	if err := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		} else {
			ctl.log.Error().Err(err).Msg("failed to load service")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &service, true
}
