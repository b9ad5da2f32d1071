package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CustomerController struct {
	db         *gorm.DB
	activities *services.ActivityService
	log        zerolog.Logger
}

func NewCustomerController(db *gorm.DB, activities *services.ActivityService, log zerolog.Logger) *CustomerController {
	return &CustomerController{db: db, activities: activities, log: log}
}

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name        string     `json:"name" binding:"required"`
	Phone       string     `json:"phone" binding:"required"`
	Email       *string    `json:"email"` // Pointer to allow null
	Birthday    *time.Time `json:"birthday"`
	Anniversary *time.Time `json:"anniversary"`
	Notes       string     `json:"notes"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	Name        *string    `json:"name"`
	Phone       *string    `json:"phone"`
	Email       *string    `json:"email"`
	Birthday    *time.Time `json:"birthday"`
	Anniversary *time.Time `json:"anniversary"`
	Notes       *string    `json:"notes"`
	IsActive    *bool      `json:"isActive"`
}

// Create creates a new customer for the salon
func (ctl *CustomerController) Create(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	user, _ := utils.UserIDFromContext(c)

	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	phone := utils.NormalizePhone(input.Phone)
	if !utils.ValidatePhone(phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	db := ctl.db.WithContext(c.Request.Context())

	// Phone numbers are unique per salon
	if taken, err := phoneTaken(db, salon.String(), phone, ""); err != nil {
		ctl.log.Error().Err(err).Msg("customer phone lookup failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	} else if taken {
		utils.RespondWithError(c, http.StatusConflict, "Customer with this phone number already exists")
		return
	}

	customer := models.Customer{
		SalonID:         salon,
		CreatedByUserID: user,
		Name:            strings.TrimSpace(input.Name),
		Phone:           phone,
		Birthday:        input.Birthday,
		Anniversary:     input.Anniversary,
		Notes:           input.Notes,
		IsActive:        true,
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}

	if err := db.Create(&customer).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to create customer")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// List retrieves all customers for the salon, optionally filtered by ?q= on name or phone
func (ctl *CustomerController) List(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}

	q := ctl.db.WithContext(c.Request.Context()).Where("salon_id = ?", salon)
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, like)
	}

	var customers []models.Customer
	if err := q.Order("name ASC").Find(&customers).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to list customers")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, customers)
}

// Get retrieves a specific customer by ID
func (ctl *CustomerController) Get(c *gin.Context) {
	customer, ok := ctl.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

// Update updates an existing customer
func (ctl *CustomerController) Update(c *gin.Context) {
	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, ok := ctl.load(c)
	if !ok {
		return
	}
	db := ctl.db.WithContext(c.Request.Context())

	if input.Name != nil {
		customer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		phone := utils.NormalizePhone(*input.Phone)
		if !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}

		// Check if phone is being changed to another existing customer
		if customer.Phone != phone {
			taken, err := phoneTaken(db, customer.SalonID.String(), phone, customer.ID.String())
			if err != nil {
				ctl.log.Error().Err(err).Msg("customer phone lookup failed")
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
			if taken {
				utils.RespondWithError(c, http.StatusConflict, "Another customer with this phone number already exists")
				return
			}
		}
		customer.Phone = phone
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Birthday != nil {
		customer.Birthday = input.Birthday
	}
	if input.Anniversary != nil {
		customer.Anniversary = input.Anniversary
	}
	if input.Notes != nil {
		customer.Notes = *input.Notes
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := db.Save(customer).Error; err != nil {
		ctl.log.Error().Err(err).Msg("failed to update customer")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// Delete soft deletes a customer
func (ctl *CustomerController) Delete(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "customer")
	if !ok {
		return
	}

	result := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		Delete(&models.Customer{})
	if result.Error != nil {
		ctl.log.Error().Err(result.Error).Msg("failed to delete customer")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// Activities returns the customer's history, newest first
func (ctl *CustomerController) Activities(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "customer")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	activities, err := ctl.activities.ListForCustomer(c.Request.Context(), salon, id, limit)
	if err != nil {
		respondServiceError(c, ctl.log, err, "Customer")
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (ctl *CustomerController) load(c *gin.Context) (*models.Customer, bool) {
	salon, ok := salonID(c)
	if !ok {
		return nil, false
	}
	id, ok := pathID(c, "customer")
	if !ok {
		return nil, false
	}

	var customer models.Customer
	if err := ctl.db.WithContext(c.Request.Context()).
		Where("salon_id = ? AND id = ?", salon, id).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			ctl.log.Error().Err(err).Msg("failed to load customer")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &customer, true
}

func phoneTaken(db *gorm.DB, salonID, phone, exceptID string) (bool, error) {
	// Unscoped: soft-deleted rows still hold the unique index.
	q := db.Unscoped().Model(&models.Customer{}).Where("salon_id = ? AND phone = ?", salonID, phone)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
