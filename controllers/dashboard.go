package controllers

import (
	"fmt"
	"net/http"
	"time"

	"salonpro-frontdesk/models"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type DashboardController struct {
	db         *gorm.DB
	activities *services.ActivityService
	waitlist   *services.WaitlistService
	log        zerolog.Logger
	now        func() time.Time
}

func NewDashboardController(db *gorm.DB, activities *services.ActivityService, waitlist *services.WaitlistService, log zerolog.Logger) *DashboardController {
	return &DashboardController{
		db:         db,
		activities: activities,
		waitlist:   waitlist,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type DashboardOverview struct {
	TotalCustomers    int64                              `json:"totalCustomers"`
	TodayAppointments map[models.AppointmentStatus]int64 `json:"todayAppointments"`
	Waitlist          []LocationQueue                    `json:"waitlist"`
	UpcomingReminders []UpcomingReminder                 `json:"upcomingReminders"`
	RecentActivity    []models.Activity                  `json:"recentActivity"`
}

type LocationQueue struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Waiting    int    `json:"waiting"`
}

type UpcomingReminder struct {
	Name string `json:"name"`
	Type string `json:"type"` // "Birthday" or "Anniversary"
	Date string `json:"date"` // e.g. "Tomorrow", "3 days"
}

func (ctl *DashboardController) Overview(c *gin.Context) {
	salon, ok := salonID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	db := ctl.db.WithContext(ctx)
	out := DashboardOverview{TodayAppointments: map[models.AppointmentStatus]int64{}}

	if err := db.Model(&models.Customer{}).Where("salon_id = ?", salon).Count(&out.TotalCustomers).Error; err != nil {
		ctl.fail(c, err)
		return
	}

	// Today's appointments per status
	today := utils.BeginningOfDay(ctl.now())
	var rows []struct {
		Status models.AppointmentStatus
		Count  int64
	}
	if err := db.Model(&models.Appointment{}).
		Select("status, COUNT(*) AS count").
		Where("salon_id = ? AND scheduled_start >= ? AND scheduled_start < ?", salon, today, today.AddDate(0, 0, 1)).
		Group("status").
		Scan(&rows).Error; err != nil {
		ctl.fail(c, err)
		return
	}
	for _, status := range []models.AppointmentStatus{
		models.AppointmentScheduled, models.AppointmentCheckedIn, models.AppointmentCompleted,
		models.AppointmentCancelled, models.AppointmentNoShow,
	} {
		out.TodayAppointments[status] = 0
	}
	for _, r := range rows {
		out.TodayAppointments[r.Status] = r.Count
	}

	// Active queue length per location
	counts, err := ctl.waitlist.ActiveCounts(ctx, salon)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	var locations []models.Location
	if err := db.Where("salon_id = ? AND is_active = ?", salon, true).Order("created_at ASC").Find(&locations).Error; err != nil {
		ctl.fail(c, err)
		return
	}
	out.Waitlist = make([]LocationQueue, 0, len(locations))
	for _, l := range locations {
		out.Waitlist = append(out.Waitlist, LocationQueue{LocationID: l.ID.String(), Name: l.Name, Waiting: counts[l.ID]})
	}

	// Birthdays and anniversaries in the next 7 days
	var customers []models.Customer
	if err := db.Where("salon_id = ? AND (birthday IS NOT NULL OR anniversary IS NOT NULL)", salon).Find(&customers).Error; err != nil {
		ctl.fail(c, err)
		return
	}
	out.UpcomingReminders = upcomingReminders(customers, today, 7)

	if out.RecentActivity, err = ctl.activities.Recent(ctx, salon, 10); err != nil {
		ctl.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (ctl *DashboardController) fail(c *gin.Context, err error) {
	ctl.log.Error().Err(err).Msg("dashboard query failed")
	utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
}

func upcomingReminders(customers []models.Customer, today time.Time, days int) []UpcomingReminder {
	out := []UpcomingReminder{}
	for _, cust := range customers {
		for _, ev := range []struct {
			label string
			date  *time.Time
		}{{"Birthday", cust.Birthday}, {"Anniversary", cust.Anniversary}} {
			if ev.date == nil {
				continue
			}
			daysUntil := utils.DaysBetween(today, utils.NextAnniversary(*ev.date, today))
			if daysUntil > days {
				continue
			}
			var label string
			switch daysUntil {
			case 0:
				label = "Today"
			case 1:
				label = "Tomorrow"
			default:
				label = fmt.Sprintf("%d days", daysUntil)
			}
			out = append(out, UpcomingReminder{Name: cust.Name, Type: ev.label, Date: label})
		}
	}
	return out
}
