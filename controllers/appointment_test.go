package controllers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAppointmentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	customer := testutil.SeedCustomer(t, f.db, f.tenant.Salon.ID, "Jane", "+15551234567")

	start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Minute)
	w := f.do(t, http.MethodPost, "/api/appointments", gin.H{
		"customerId":     customer.ID,
		"scheduledStart": start,
		"notes":          "balayage",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Appointment
	decode(t, w, &created)
	require.Equal(t, models.AppointmentScheduled, created.Status)

	w = f.do(t, http.MethodPost, "/api/appointments/"+created.ID.String()+"/check-in", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var checkedIn models.Appointment
	decode(t, w, &checkedIn)
	require.Equal(t, models.AppointmentCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckedInAt)

	w = f.do(t, http.MethodPost, "/api/appointments/"+created.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/customers/"+customer.ID.String()+"/activities", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var activities []models.Activity
	decode(t, w, &activities)
	require.Len(t, activities, 3)
	require.Equal(t, models.ActivityAppointmentCompleted, activities[0].Type)
}

func TestCancelAppointmentWithReason(t *testing.T) {
	f := newAPIFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, nil)

	w := f.do(t, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", gin.H{"reason": "client request"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.Appointment
	decode(t, w, &got)
	require.Equal(t, models.AppointmentCancelled, got.Status)
	require.Equal(t, "Cancelled: client request", got.InternalNotes)

	// A second cancel without a body also succeeds.
	w = f.do(t, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCancelWithStreamedEmptyBody(t *testing.T) {
	f := newAPIFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, nil)
	path := "/api/appointments/" + appt.ID.String() + "/cancel"

	send := func(body string) *httptest.ResponseRecorder {
		// A reader of unknown length arrives with ContentLength -1, like a chunked upload.
		req := httptest.NewRequest(http.MethodPost, path, io.NopCloser(strings.NewReader(body)))
		req.Header.Set("Authorization", "Bearer "+f.token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	requireError(t, send(`{"reason":`), http.StatusBadRequest)

	w := send("")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.Appointment
	decode(t, w, &got)
	require.Equal(t, models.AppointmentCancelled, got.Status)
	require.Empty(t, got.InternalNotes)
}

func TestAppointmentErrorResponses(t *testing.T) {
	f := newAPIFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, nil)

	msg := requireError(t, f.do(t, http.MethodPost, "/api/appointments/"+uuid.NewString()+"/check-in", nil), http.StatusNotFound)
	require.Equal(t, "Appointment not found", msg)

	requireError(t, f.do(t, http.MethodPost, "/api/appointments/not-a-uuid/check-in", nil), http.StatusBadRequest)

	w := f.do(t, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/no-show", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg = requireError(t, f.do(t, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/check-in", nil), http.StatusConflict)
	require.Contains(t, msg, "NO_SHOW")

	requireError(t, f.do(t, http.MethodPost, "/api/appointments", gin.H{"notes": "no start"}), http.StatusBadRequest)
	msg = requireError(t, f.do(t, http.MethodPost, "/api/appointments", gin.H{
		"customerId":     uuid.New(),
		"scheduledStart": time.Now().Add(time.Hour),
	}), http.StatusBadRequest)
	require.Contains(t, msg, "customer not found")

	requireError(t, f.do(t, http.MethodGet, "/api/appointments?status=LATE", nil), http.StatusBadRequest)
	requireError(t, f.do(t, http.MethodGet, "/api/appointments?date=10-05-2030", nil), http.StatusBadRequest)
}

func TestAppointmentRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	requireError(t, w, http.StatusUnauthorized)
}

func TestListAppointmentsByDay(t *testing.T) {
	f := newAPIFixture(t)
	day := time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{10, 14} {
		w := f.do(t, http.MethodPost, "/api/appointments", gin.H{"scheduledStart": day.Add(time.Duration(h) * time.Hour)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := f.do(t, http.MethodPost, "/api/appointments", gin.H{"scheduledStart": day.AddDate(0, 0, 2)})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/appointments?date=2030-05-10&status=scheduled", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list []models.Appointment
	decode(t, w, &list)
	require.Len(t, list, 2)
}
