// Package testutil provides a migrated in-memory database and fixtures for tests.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	"salonpro-frontdesk/config"
	"salonpro-frontdesk/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// NewTestDB returns a fresh, migrated in-memory SQLite database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

// Tenant is a salon with one location, used as the fixture for most tests.
type Tenant struct {
	Salon    models.Salon
	Owner    models.User
	Location models.Location
}

// SeedTenant inserts a salon, its owner and a default location.
func SeedTenant(t *testing.T, db *gorm.DB) Tenant {
	t.Helper()

	salon := models.Salon{Name: "Test Salon", Address: "1 Main St", WorkingHours: models.DefaultWorkingHours()}
	require.NoError(t, db.Create(&salon).Error)

	owner := models.User{
		Email:    uuid.NewString() + "@example.com",
		Password: "password123",
		Name:     "Owner",
		Phone:    "+15550000001",
		Role:     models.RoleOwner,
		SalonID:  salon.ID,
		IsActive: true,
	}
	require.NoError(t, db.Create(&owner).Error)

	loc := models.Location{SalonID: salon.ID, Name: "Main", IsActive: true}
	require.NoError(t, db.Create(&loc).Error)

	return Tenant{Salon: salon, Owner: owner, Location: loc}
}

// SeedCustomer inserts an active customer for salonID.
func SeedCustomer(t *testing.T, db *gorm.DB, salonID uuid.UUID, name, phone string) models.Customer {
	t.Helper()
	c := models.Customer{SalonID: salonID, Name: name, Phone: phone, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// SeedLocation inserts an extra location for salonID.
func SeedLocation(t *testing.T, db *gorm.DB, salonID uuid.UUID, name string) models.Location {
	t.Helper()
	l := models.Location{SalonID: salonID, Name: name, IsActive: true}
	require.NoError(t, db.Create(&l).Error)
	return l
}

// SeedAppointment inserts a SCHEDULED appointment one hour from now.
func SeedAppointment(t *testing.T, db *gorm.DB, salonID uuid.UUID, customerID *uuid.UUID) models.Appointment {
	t.Helper()
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Minute)
	a := models.Appointment{
		SalonID:        salonID,
		CustomerID:     customerID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(45 * time.Minute),
		Status:         models.AppointmentScheduled,
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

// SeedWaitlistEntry inserts an entry at an explicit position.
func SeedWaitlistEntry(t *testing.T, db *gorm.DB, salonID, locationID uuid.UUID, name string, position int, status models.WaitlistStatus) models.WaitlistEntry {
	t.Helper()
	e := models.WaitlistEntry{
		SalonID:       salonID,
		LocationID:    locationID,
		GuestName:     name,
		PartySize:     1,
		Status:        status,
		Position:      position,
		EstimatedWait: (position - 1) * 15,
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}
