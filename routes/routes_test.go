package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"salonpro-frontdesk/config"
	"salonpro-frontdesk/controllers"
	"salonpro-frontdesk/models"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/testutil"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
}

type client struct {
	router *gin.Engine
	token  string
}

func newClient(t *testing.T) *client {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := zerolog.Nop()

	cfg := config.Defaults()
	cfg.Auth.JWTSecret = "routes-test-secret"

	activities := services.NewActivityService(db)
	reminders := services.NewReminderService(db, &services.RecordingSender{}, services.ReminderConfig{}, log)
	return &client{router: SetupRouter(Deps{
		Config:      cfg,
		DB:          db,
		Log:         log,
		Activities:  activities,
		Appointment: services.NewAppointmentService(db, activities, services.NoopPublisher{}, log),
		Waitlist:    services.NewWaitlistService(db, activities, services.NoopPublisher{}, reminders, cfg.Waitlist.MinutesPerSlot, log),
	})}
}

func (c *client) do(t *testing.T, method, path string, body interface{}, dst interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if dst != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
	}
	return w.Code
}

func (c *client) register(t *testing.T) {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	code := c.do(t, http.MethodPost, "/auth/register", gin.H{
		"email":     "owner@example.com",
		"phone":     "+15550001111",
		"name":      "Owner",
		"password":  "correct-horse",
		"salonName": "Glow Studio",
	}, &resp)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, resp.Token)
	c.token = resp.Token
}

func TestRegisterLoginAndMe(t *testing.T) {
	c := newClient(t)
	c.register(t)

	var me struct {
		User map[string]interface{} `json:"user"`
	}
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/auth/me", nil, &me))
	require.Equal(t, "Glow Studio", me.User["salonName"])

	anon := &client{router: c.router}
	require.Equal(t, http.StatusConflict, anon.do(t, http.MethodPost, "/auth/register", gin.H{
		"email":     "OWNER@example.com",
		"phone":     "+15550002222",
		"name":      "Copy",
		"password":  "correct-horse",
		"salonName": "Copy Studio",
	}, nil))

	var login struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, anon.do(t, http.MethodPost, "/auth/login", gin.H{
		"identifier": "+1 555 000 1111",
		"password":   "correct-horse",
	}, &login))
	require.NotEmpty(t, login.Token)

	var failed map[string]string
	require.Equal(t, http.StatusUnauthorized, anon.do(t, http.MethodPost, "/auth/login", gin.H{
		"identifier": "owner@example.com",
		"password":   "wrong-horse",
	}, &failed))
	require.Equal(t, "Invalid credentials", failed["error"])
}

func TestRegistrationSeedsTenantData(t *testing.T) {
	c := newClient(t)
	c.register(t)

	var locations []models.Location
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/locations", nil, &locations))
	require.Len(t, locations, 1)
	require.Equal(t, "Main", locations[0].Name)

	var templates []models.ReminderTemplate
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/reminder-templates", nil, &templates))
	require.Len(t, templates, 4)

	require.Equal(t, http.StatusConflict, c.do(t, http.MethodPost, "/api/reminder-templates", gin.H{
		"type":    models.ReminderWaitlist,
		"message": "You're up at [SalonName]",
	}, nil))
	require.Equal(t, http.StatusBadRequest, c.do(t, http.MethodPost, "/api/reminder-templates", gin.H{
		"type":    "promo",
		"message": "Sale!",
	}, nil))
}

func TestCatalogEndpoints(t *testing.T) {
	c := newClient(t)
	c.register(t)

	var customer models.Customer
	require.Equal(t, http.StatusCreated, c.do(t, http.MethodPost, "/api/customers", gin.H{
		"name":  "Jane Doe",
		"phone": "+1 (555) 123-4567",
	}, &customer))
	require.Equal(t, "+15551234567", customer.Phone)
	require.Equal(t, http.StatusConflict, c.do(t, http.MethodPost, "/api/customers", gin.H{
		"name":  "Jane Again",
		"phone": "+15551234567",
	}, nil))

	var found []models.Customer
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/customers?q=jane", nil, &found))
	require.Len(t, found, 1)

	var service models.Service
	require.Equal(t, http.StatusCreated, c.do(t, http.MethodPost, "/api/services", gin.H{
		"name":     "Cut & Style",
		"price":    45,
		"duration": 30,
		"category": "Hair",
	}, &service))
	var menu []models.Service
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/services?category=Hair", nil, &menu))
	require.Len(t, menu, 1)

	require.Equal(t, http.StatusOK, c.do(t, http.MethodDelete, "/api/customers/"+customer.ID.String(), nil, nil))
	require.Equal(t, http.StatusNotFound, c.do(t, http.MethodGet, "/api/customers/"+customer.ID.String(), nil, nil))
}

func TestDashboardOverview(t *testing.T) {
	c := newClient(t)
	c.register(t)

	var locations []models.Location
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/locations", nil, &locations))
	require.Equal(t, http.StatusCreated, c.do(t, http.MethodPost, "/api/waitlist", gin.H{
		"locationId": locations[0].ID,
		"guestName":  "Walk-in",
	}, nil))

	var overview controllers.DashboardOverview
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/dashboard", nil, &overview))
	require.Len(t, overview.TodayAppointments, 5)
	require.Len(t, overview.Waitlist, 1)
	require.Equal(t, 1, overview.Waitlist[0].Waiting)
}

func TestHealthAndMetrics(t *testing.T) {
	c := newClient(t)
	require.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/healthz", nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")

	require.Equal(t, http.StatusUnauthorized, c.do(t, http.MethodGet, "/api/dashboard", nil, nil))
}
