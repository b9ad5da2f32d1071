package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"salonpro-frontdesk/services"
	"salonpro-frontdesk/testutil"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
}

type apiFixture struct {
	db     *gorm.DB
	router *gin.Engine
	tenant testutil.Tenant
	token  string
	sender *services.RecordingSender
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	tenant := testutil.SeedTenant(t, db)
	log := zerolog.Nop()
	sender := &services.RecordingSender{}

	activities := services.NewActivityService(db)
	reminders := services.NewReminderService(db, sender, services.ReminderConfig{}, log)
	appointments := NewAppointmentController(services.NewAppointmentService(db, activities, services.NoopPublisher{}, log), log)
	waitlist := NewWaitlistController(services.NewWaitlistService(db, activities, services.NoopPublisher{}, reminders, 15, log), log)
	customers := NewCustomerController(db, activities, log)

	r := gin.New()
	api := r.Group("/api", utils.AuthMiddleware(testSecret))
	api.POST("/appointments", appointments.Create)
	api.GET("/appointments", appointments.List)
	api.GET("/appointments/:id", appointments.Get)
	api.POST("/appointments/:id/check-in", appointments.CheckIn)
	api.POST("/appointments/:id/complete", appointments.Complete)
	api.POST("/appointments/:id/cancel", appointments.Cancel)
	api.POST("/appointments/:id/no-show", appointments.NoShow)
	api.POST("/waitlist", waitlist.Join)
	api.GET("/waitlist", waitlist.List)
	api.PUT("/waitlist/:id", waitlist.Update)
	api.DELETE("/waitlist/:id", waitlist.Remove)
	api.POST("/waitlist/:id/seat", waitlist.Seat)
	api.POST("/waitlist/:id/notify", waitlist.Notify)
	api.POST("/customers", customers.Create)
	api.GET("/customers/:id/activities", customers.Activities)

	token, err := utils.GenerateToken(testSecret, time.Hour, tenant.Owner.ID, tenant.Salon.ID, tenant.Owner.Role)
	require.NoError(t, err)

	return apiFixture{db: db, router: r, tenant: tenant, token: token, sender: sender}
}

func (f apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, code int) string {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
	var body map[string]string
	decode(t, w, &body)
	require.NotEmpty(t, body["error"])
	return body["error"]
}
