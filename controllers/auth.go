package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salonpro-frontdesk/config"
	"salonpro-frontdesk/models"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var errAccountTaken = errors.New("email or phone already registered")

type AuthController struct {
	db   *gorm.DB
	auth config.AuthConfig
	log  zerolog.Logger
}

func NewAuthController(db *gorm.DB, auth config.AuthConfig, log zerolog.Logger) *AuthController {
	return &AuthController{db: db, auth: auth, log: log}
}

type RegisterInput struct {
	Email        string       `json:"email" binding:"required,email"`
	Phone        string       `json:"phone" binding:"required"`
	Name         string       `json:"name" binding:"required"`
	Password     string       `json:"password" binding:"required,min=8"`
	SalonName    string       `json:"salonName" binding:"required"`
	SalonAddress string       `json:"salonAddress"`
	Timezone     string       `json:"timezone"`
	WorkingHours models.JSONB `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates a salon together with its owner account, a default
// location and the default reminder templates.
func (ctl *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := utils.NormalizePhone(input.Phone)
	if !utils.ValidatePhone(phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid timezone")
			return
		}
	}

	salon := models.Salon{
		Name:                  input.SalonName,
		Address:               input.SalonAddress,
		Timezone:              input.Timezone,
		WorkingHours:          input.WorkingHours,
		BirthdayReminders:     true,
		AnniversaryReminders:  true,
		AppointmentReminders:  true,
		SMSNotifications:      true,
		WhatsAppNotifications: false,
	}
	if salon.Timezone == "" {
		salon.Timezone = "UTC"
	}
	if salon.WorkingHours == nil {
		salon.WorkingHours = models.DefaultWorkingHours()
	}
	user := models.User{
		Email:    email,
		Phone:    phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     models.RoleOwner,
		IsActive: true,
	}

	err := ctl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ? OR phone = ?", email, phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errAccountTaken
		}
		if err := tx.Create(&salon).Error; err != nil {
			return err
		}
		user.SalonID = salon.ID
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Location{SalonID: salon.ID, Name: "Main", Address: salon.Address, IsActive: true}).Error; err != nil {
			return err
		}
		templates := models.DefaultReminderTemplates(salon.ID)
		return tx.Create(&templates).Error
	})
	if errors.Is(err, errAccountTaken) {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	}
	if err != nil {
		ctl.log.Error().Err(err).Msg("registration failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, ok := ctl.issueToken(c, &user)
	if !ok {
		return
	}
	ctl.log.Info().Str("salon_id", salon.ID.String()).Str("user_id", user.ID.String()).Msg("salon registered")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userResponse(&user, &salon),
	})
}

func (ctl *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)
	db := ctl.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("email = ? OR phone = ?", strings.ToLower(identifier), utils.NormalizePhone(identifier)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			ctl.log.Error().Err(err).Msg("login lookup failed")
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	var salon models.Salon
	if err := db.First(&salon, "id = ?", user.SalonID).Error; err != nil {
		ctl.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("salon lookup failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	token, ok := ctl.issueToken(c, &user)
	if !ok {
		return
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login", &now).Error; err != nil {
		ctl.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(&user, &salon),
	})
}

func (ctl *AuthController) Me(c *gin.Context) {
	userID, ok := utils.UserIDFromContext(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	db := ctl.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	var salon models.Salon
	if err := db.First(&salon, "id = ?", user.SalonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(&user, &salon)})
}

// issueToken signs a token and sets it as the session cookie.
func (ctl *AuthController) issueToken(c *gin.Context, user *models.User) (string, bool) {
	expiry := ctl.auth.TokenExpiry()
	token, err := utils.GenerateToken(ctl.auth.JWTSecret, expiry, user.ID, user.SalonID, user.Role)
	if err != nil {
		ctl.log.Error().Err(err).Msg("failed to generate token")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}
	c.SetCookie("token", token, int(expiry.Seconds()), "/", "", true, true)
	return token, true
}

func userResponse(user *models.User, salon *models.Salon) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"phone":     user.Phone,
		"role":      user.Role,
		"salonId":   salon.ID,
		"salonName": salon.Name,
	}
}
