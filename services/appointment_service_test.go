package services

import (
	"context"
	"testing"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/testutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type appointmentFixture struct {
	db       *gorm.DB
	svc      *AppointmentService
	events   *RecordingPublisher
	tenant   testutil.Tenant
	customer models.Customer
}

func newAppointmentFixture(t *testing.T) appointmentFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	tenant := testutil.SeedTenant(t, db)
	events := &RecordingPublisher{}
	return appointmentFixture{
		db:       db,
		svc:      NewAppointmentService(db, NewActivityService(db), events, zerolog.Nop()),
		events:   events,
		tenant:   tenant,
		customer: testutil.SeedCustomer(t, db, tenant.Salon.ID, "Jane Doe", "+15551234567"),
	}
}

func (f appointmentFixture) activityCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Activity{}).Where("customer_id = ?", f.customer.ID).Count(&n).Error)
	return n
}

func TestCheckInSetsStatusAndTimestamp(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)

	before := time.Now().UTC().Add(-time.Millisecond)
	got, err := f.svc.CheckIn(context.Background(), f.tenant.Salon.ID, appt.ID)
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCheckedIn, got.Status)
	require.NotNil(t, got.CheckedInAt)
	require.False(t, got.CheckedInAt.Before(before))
	require.NotNil(t, got.ActualStart)

	var stored models.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", appt.ID).Error)
	require.Equal(t, models.AppointmentCheckedIn, stored.Status)
	require.NotNil(t, stored.CheckedInAt)

	events := f.events.Events()
	require.Len(t, events, 1)
	require.Equal(t, EventAppointmentCheckedIn, events[0].Type)
	require.Equal(t, appt.ID, events[0].AggregateID)
}

func TestTransitionsLogOneActivityForLinkedClient(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	salon := f.tenant.Salon.ID

	a := testutil.SeedAppointment(t, f.db, salon, &f.customer.ID)
	_, err := f.svc.CheckIn(ctx, salon, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.activityCount(t))

	_, err = f.svc.Complete(ctx, salon, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.activityCount(t))

	b := testutil.SeedAppointment(t, f.db, salon, &f.customer.ID)
	_, err = f.svc.MarkNoShow(ctx, salon, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, f.activityCount(t))

	var activity models.Activity
	require.NoError(t, f.db.Where("customer_id = ? AND type = ?", f.customer.ID, models.ActivityAppointmentNoShow).First(&activity).Error)
	require.Equal(t, salon, activity.SalonID)
	require.Equal(t, b.ID.String(), activity.Metadata["appointmentId"])
	require.Equal(t, "SCHEDULED", activity.Metadata["previousStatus"])
}

func TestTransitionWithoutClientLogsNothing(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, nil)

	_, err := f.svc.CheckIn(context.Background(), f.tenant.Salon.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "")
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.db.Model(&models.Activity{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestCancelTwiceSucceeds(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)

	first, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCancelled, first.Status)

	second, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCancelled, second.Status)
}

func TestRepeatedTransitionKeepsOriginalRecord(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	salon := f.tenant.Salon.ID
	appt := testutil.SeedAppointment(t, f.db, salon, &f.customer.ID)

	first, err := f.svc.CheckIn(ctx, salon, appt.ID)
	require.NoError(t, err)

	later := first.CheckedInAt.Add(20 * time.Minute)
	f.svc.now = func() time.Time { return later }
	second, err := f.svc.CheckIn(ctx, salon, appt.ID)
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCheckedIn, second.Status)
	require.True(t, first.CheckedInAt.Equal(*second.CheckedInAt))
	require.True(t, first.ActualStart.Equal(*second.ActualStart))

	var stored models.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", appt.ID).Error)
	require.True(t, first.CheckedInAt.Equal(*stored.CheckedInAt))
	require.EqualValues(t, 1, f.activityCount(t))
	require.Len(t, f.events.Events(), 1)

	done, err := f.svc.Complete(ctx, salon, appt.ID)
	require.NoError(t, err)
	f.svc.now = func() time.Time { return later.Add(time.Hour) }
	again, err := f.svc.Complete(ctx, salon, appt.ID)
	require.NoError(t, err)
	require.True(t, done.CheckedOutAt.Equal(*again.CheckedOutAt))
	require.True(t, done.ActualEnd.Equal(*again.ActualEnd))
	require.EqualValues(t, 2, f.activityCount(t))
	require.Len(t, f.events.Events(), 2)
}

func TestCancelRepeatKeepsFirstReason(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)

	_, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "client request")
	require.NoError(t, err)
	got, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "double booked")
	require.NoError(t, err)
	require.Equal(t, "Cancelled: client request", got.InternalNotes)
	require.EqualValues(t, 1, f.activityCount(t))
}

func TestCancelStoresReason(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)

	got, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "client request")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCancelled, got.Status)
	require.Equal(t, "Cancelled: client request", got.InternalNotes)

	var stored models.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", appt.ID).Error)
	require.Equal(t, "Cancelled: client request", stored.InternalNotes)
}

func TestCancelWithoutReasonKeepsInternalNotes(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)
	require.NoError(t, f.db.Model(&appt).Update("internal_notes", "prefers window seat").Error)

	got, err := f.svc.Cancel(context.Background(), f.tenant.Salon.ID, appt.ID, "   ")
	require.NoError(t, err)
	require.Equal(t, "prefers window seat", got.InternalNotes)
}

func TestCompleteCountsVisitOnce(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)

	_, err := f.svc.CheckIn(ctx, f.tenant.Salon.ID, appt.ID)
	require.NoError(t, err)
	got, err := f.svc.Complete(ctx, f.tenant.Salon.ID, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualEnd)
	require.NotNil(t, got.CheckedOutAt)

	// Repeating the completion must not count a second visit.
	_, err = f.svc.Complete(ctx, f.tenant.Salon.ID, appt.ID)
	require.NoError(t, err)

	var customer models.Customer
	require.NoError(t, f.db.First(&customer, "id = ?", f.customer.ID).Error)
	require.Equal(t, 1, customer.TotalVisits)
	require.NotNil(t, customer.LastVisit)
}

func TestInvalidTransitionsAreRejected(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	salon := f.tenant.Salon.ID

	scheduled := testutil.SeedAppointment(t, f.db, salon, &f.customer.ID)
	_, err := f.svc.Complete(ctx, salon, scheduled.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	cancelled := testutil.SeedAppointment(t, f.db, salon, &f.customer.ID)
	_, err = f.svc.Cancel(ctx, salon, cancelled.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, salon, cancelled.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var stored models.Appointment
	require.NoError(t, f.db.First(&stored, "id = ?", cancelled.ID).Error)
	require.Equal(t, models.AppointmentCancelled, stored.Status)
	require.Nil(t, stored.CheckedInAt)
}

func TestTransitionUnknownAppointment(t *testing.T) {
	f := newAppointmentFixture(t)
	_, err := f.svc.CheckIn(context.Background(), f.tenant.Salon.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionIsScopedToSalon(t *testing.T) {
	f := newAppointmentFixture(t)
	appt := testutil.SeedAppointment(t, f.db, f.tenant.Salon.ID, &f.customer.ID)
	other := testutil.SeedTenant(t, f.db)

	_, err := f.svc.CheckIn(context.Background(), other.Salon.ID, appt.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDerivesEndFromService(t *testing.T) {
	f := newAppointmentFixture(t)
	svc := models.Service{SalonID: f.tenant.Salon.ID, Name: "Haircut", Price: 30, Duration: 30, IsActive: true}
	require.NoError(t, f.db.Create(&svc).Error)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	appt, err := f.svc.Create(context.Background(), f.tenant.Salon.ID, CreateAppointmentParams{
		CustomerID:     &f.customer.ID,
		ServiceID:      &svc.ID,
		LocationID:     &f.tenant.Location.ID,
		ScheduledStart: start,
		Notes:          " first visit ",
	})
	require.NoError(t, err)
	require.Equal(t, models.AppointmentScheduled, appt.Status)
	require.True(t, appt.ScheduledEnd.Equal(start.Add(30*time.Minute)))
	require.Equal(t, "first visit", appt.Notes)

	var activity models.Activity
	require.NoError(t, f.db.Where("customer_id = ?", f.customer.ID).First(&activity).Error)
	require.Equal(t, models.ActivityAppointmentBooked, activity.Type)

	require.Len(t, f.events.Events(), 1)
	require.Equal(t, EventAppointmentBooked, f.events.Events()[0].Type)
}

func TestCreateValidation(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	salon := f.tenant.Salon.ID
	start := time.Now().UTC().Add(time.Hour)

	_, err := f.svc.Create(ctx, salon, CreateAppointmentParams{})
	require.ErrorIs(t, err, ErrInvalidInput)

	missing := uuid.New()
	_, err = f.svc.Create(ctx, salon, CreateAppointmentParams{CustomerID: &missing, ScheduledStart: start})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "customer not found")

	other := testutil.SeedTenant(t, f.db)
	stranger := testutil.SeedCustomer(t, f.db, other.Salon.ID, "Other", "+15559999999")
	_, err = f.svc.Create(ctx, salon, CreateAppointmentParams{CustomerID: &stranger.ID, ScheduledStart: start})
	require.ErrorIs(t, err, ErrInvalidInput)

	end := start.Add(-time.Minute)
	_, err = f.svc.Create(ctx, salon, CreateAppointmentParams{ScheduledStart: start, ScheduledEnd: &end})
	require.ErrorIs(t, err, ErrInvalidInput)

	var n int64
	require.NoError(t, f.db.Model(&models.Appointment{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestListFiltersByDayAndStatus(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	salon := f.tenant.Salon.ID

	day := time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{9, 11, 15} {
		_, err := f.svc.Create(ctx, salon, CreateAppointmentParams{
			CustomerID:     &f.customer.ID,
			ScheduledStart: day.Add(time.Duration(h) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, salon, CreateAppointmentParams{ScheduledStart: day.AddDate(0, 0, 1).Add(9 * time.Hour)})
	require.NoError(t, err)

	got, err := f.svc.List(ctx, salon, AppointmentFilter{Day: &day})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.True(t, got[0].ScheduledStart.Before(got[1].ScheduledStart))
	require.NotNil(t, got[0].Customer)
	require.Equal(t, "Jane Doe", got[0].Customer.Name)

	_, err = f.svc.Cancel(ctx, salon, got[1].ID, "")
	require.NoError(t, err)
	cancelled, err := f.svc.List(ctx, salon, AppointmentFilter{Day: &day, Status: models.AppointmentCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	require.Equal(t, got[1].ID, cancelled[0].ID)
}
