package controllers

import (
	"net/http"
	"testing"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (f apiFixture) queue(t *testing.T) []models.WaitlistEntry {
	t.Helper()
	w := f.do(t, http.MethodGet, "/api/waitlist?locationId="+f.tenant.Location.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entries []models.WaitlistEntry
	decode(t, w, &entries)
	return entries
}

func TestJoinAndSeatOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		w := f.do(t, http.MethodPost, "/api/waitlist", gin.H{
			"locationId": f.tenant.Location.ID,
			"guestName":  name,
			"guestPhone": "+15557654321",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var e models.WaitlistEntry
		decode(t, w, &e)
		require.Equal(t, len(ids)+1, e.Position)
		ids = append(ids, e.ID)
	}

	w := f.do(t, http.MethodPost, "/api/waitlist/"+ids[1].String()+"/seat", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var seated models.WaitlistEntry
	decode(t, w, &seated)
	require.Equal(t, models.WaitlistSeated, seated.Status)
	require.NotNil(t, seated.SeatedAt)

	queue := f.queue(t)
	require.Len(t, queue, 2)
	require.Equal(t, "A", queue[0].GuestName)
	require.Equal(t, 1, queue[0].Position)
	require.Equal(t, 0, queue[0].EstimatedWait)
	require.Equal(t, "C", queue[1].GuestName)
	require.Equal(t, 2, queue[1].Position)
	require.Equal(t, 15, queue[1].EstimatedWait)
}

func TestJoinWaitlistValidation(t *testing.T) {
	f := newAPIFixture(t)

	requireError(t, f.do(t, http.MethodPost, "/api/waitlist", gin.H{"guestName": "A"}), http.StatusBadRequest)
	requireError(t, f.do(t, http.MethodPost, "/api/waitlist", gin.H{"locationId": f.tenant.Location.ID}), http.StatusBadRequest)
	requireError(t, f.do(t, http.MethodPost, "/api/waitlist", gin.H{
		"locationId": f.tenant.Location.ID,
		"guestName":  "A",
		"guestPhone": "call me",
	}), http.StatusBadRequest)
	msg := requireError(t, f.do(t, http.MethodPost, "/api/waitlist", gin.H{
		"locationId": uuid.New(),
		"guestName":  "A",
	}), http.StatusBadRequest)
	require.Contains(t, msg, "location not found")
}

func TestRemoveFromWaitlistOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	a := testutil.SeedWaitlistEntry(t, f.db, f.tenant.Salon.ID, f.tenant.Location.ID, "A", 1, models.WaitlistWaiting)
	b := testutil.SeedWaitlistEntry(t, f.db, f.tenant.Salon.ID, f.tenant.Location.ID, "B", 2, models.WaitlistWaiting)

	w := f.do(t, http.MethodDelete, "/api/waitlist/"+a.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var left models.WaitlistEntry
	decode(t, w, &left)
	require.Equal(t, models.WaitlistLeft, left.Status)

	queue := f.queue(t)
	require.Len(t, queue, 1)
	require.Equal(t, b.ID, queue[0].ID)
	require.Equal(t, 1, queue[0].Position)

	// Every entry, including the departed one, is still listed with all=true.
	w = f.do(t, http.MethodGet, "/api/waitlist?all=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.WaitlistEntry
	decode(t, w, &all)
	require.Len(t, all, 2)

	requireError(t, f.do(t, http.MethodPost, "/api/waitlist/"+a.ID.String()+"/seat", nil), http.StatusConflict)
}

func TestUpdateWaitlistEntryOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	a := testutil.SeedWaitlistEntry(t, f.db, f.tenant.Salon.ID, f.tenant.Location.ID, "A", 1, models.WaitlistWaiting)
	testutil.SeedWaitlistEntry(t, f.db, f.tenant.Salon.ID, f.tenant.Location.ID, "B", 2, models.WaitlistWaiting)
	c := testutil.SeedWaitlistEntry(t, f.db, f.tenant.Salon.ID, f.tenant.Location.ID, "C", 3, models.WaitlistWaiting)

	w := f.do(t, http.MethodPut, "/api/waitlist/"+c.ID.String(), gin.H{"position": 1, "notes": "regular"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	queue := f.queue(t)
	require.Len(t, queue, 3)
	require.Equal(t, c.ID, queue[0].ID)
	require.Equal(t, "regular", queue[0].Notes)
	require.Equal(t, a.ID, queue[1].ID)
	require.Equal(t, 15, queue[1].EstimatedWait)

	w = f.do(t, http.MethodPut, "/api/waitlist/"+a.ID.String(), gin.H{"status": "SEATED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, f.queue(t), 2)

	requireError(t, f.do(t, http.MethodPut, "/api/waitlist/"+a.ID.String(), gin.H{"status": "WAITING"}), http.StatusConflict)
	requireError(t, f.do(t, http.MethodPut, "/api/waitlist/"+uuid.NewString(), gin.H{"notes": "x"}), http.StatusNotFound)
	requireError(t, f.do(t, http.MethodPut, "/api/waitlist/nope", gin.H{"notes": "x"}), http.StatusBadRequest)
}

func TestNotifyWaitlistEntryOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodPost, "/api/waitlist", gin.H{
		"locationId": f.tenant.Location.ID,
		"guestName":  "Sam",
		"guestPhone": "+15557654321",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var e models.WaitlistEntry
	decode(t, w, &e)

	w = f.do(t, http.MethodPost, "/api/waitlist/"+e.ID.String()+"/notify", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var notified models.WaitlistEntry
	decode(t, w, &notified)
	require.Equal(t, models.WaitlistNotified, notified.Status)
	require.NotNil(t, notified.NotifiedAt)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "+15557654321", sent[0].To)

	msg := requireError(t, f.do(t, http.MethodPost, "/api/waitlist/"+uuid.NewString()+"/notify", nil), http.StatusNotFound)
	require.Equal(t, "Waitlist entry not found", msg)
}
